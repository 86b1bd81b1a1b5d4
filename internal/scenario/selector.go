package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Selector picks the scenario for the next iteration. Implementations hold no
// mutable state; the caller's rng is the only source of randomness, so
// selections are independent across calls and across virtual users.
type Selector interface {
	Select(r *rand.Rand) Scenario
}

type Uniform struct {
	scenarios []Scenario
}

func (u *Uniform) Select(r *rand.Rand) Scenario {
	return u.scenarios[r.Intn(len(u.scenarios))]
}

// Weighted draws proportionally to Scenario.Weight. Zero-weight scenarios
// are never chosen.
type Weighted struct {
	scenarios  []Scenario
	cumulative []float64
	total      float64
}

func (w *Weighted) Select(r *rand.Rand) Scenario {
	x := r.Float64() * w.total
	i := sort.Search(len(w.cumulative), func(i int) bool { return w.cumulative[i] > x })
	if i == len(w.cumulative) {
		i--
	}
	return w.scenarios[i]
}

var ErrNoScenarios = errors.New("no scenarios to select from")

// NewSelector returns a Uniform selector when all weights are equal and a
// Weighted one otherwise.
func NewSelector(scenarios []Scenario) (Selector, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}

	uniform := true
	total := 0.0
	cumulative := make([]float64, len(scenarios))
	for i, s := range scenarios {
		w := s.Weight()
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("scenario %s: weight %v is not a finite number", s.Name(), w)
		}
		if w < 0 {
			return nil, fmt.Errorf("scenario %s: negative weight %v", s.Name(), w)
		}
		if w != scenarios[0].Weight() {
			uniform = false
		}
		total += w
		cumulative[i] = total
	}
	if total <= 0 {
		return nil, fmt.Errorf("scenario weights sum to %v, need a positive total", total)
	}

	list := append([]Scenario(nil), scenarios...)
	if uniform {
		return &Uniform{scenarios: list}, nil
	}
	return &Weighted{scenarios: list, cumulative: cumulative, total: total}, nil
}

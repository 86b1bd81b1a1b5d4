package check

import (
	"strings"
	"time"

	"contendq/internal/workflow"
)

// RateAll is the rate every check result is folded into. Each label also gets
// its own rate under LabelRate(label).
const RateAll = "checks"

// Definition is a named assertion against one response. Predicates must not
// modify the response.
type Definition struct {
	Label     string
	Predicate func(workflow.Response) bool
}

type Result struct {
	Label  string
	Passed bool
	At     time.Time
}

// Sink receives check outcomes. stats.Aggregator satisfies it.
type Sink interface {
	Observe(name string, ok bool)
}

func LabelRate(label string) string {
	return "check:" + label
}

// Evaluate runs every definition against resp independently. A predicate
// that panics, or a nil predicate, yields Passed=false for that check only.
func Evaluate(resp workflow.Response, defs []Definition) []Result {
	results := make([]Result, 0, len(defs))
	for _, d := range defs {
		results = append(results, Result{
			Label:  d.Label,
			Passed: safeEval(d.Predicate, resp),
			At:     time.Now(),
		})
	}
	return results
}

func safeEval(p func(workflow.Response) bool, resp workflow.Response) (passed bool) {
	if p == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			passed = false
		}
	}()
	return p(resp)
}

// Engine evaluates checks and forwards each result to its sink right away.
// It keeps no state of its own.
type Engine struct {
	sink Sink
}

func NewEngine(sink Sink) *Engine {
	return &Engine{sink: sink}
}

func (e *Engine) Run(resp workflow.Response, defs []Definition) []Result {
	results := Evaluate(resp, defs)
	for _, r := range results {
		e.sink.Observe(RateAll, r.Passed)
		e.sink.Observe(LabelRate(r.Label), r.Passed)
	}
	return results
}

// --- Predicates ---

func StatusIn(label string, codes ...int) Definition {
	return Definition{
		Label: label,
		Predicate: func(r workflow.Response) bool {
			for _, c := range codes {
				if r.StatusCode == c {
					return true
				}
			}
			return false
		},
	}
}

// Responded passes for any status below 500 that is not a transport failure.
func Responded(label string) Definition {
	return Definition{
		Label: label,
		Predicate: func(r workflow.Response) bool {
			return r.StatusCode >= 200 && r.StatusCode < 500
		},
	}
}

func DurationUnder(label string, limit time.Duration) Definition {
	return Definition{
		Label: label,
		Predicate: func(r workflow.Response) bool {
			return !r.TransportFailed() && r.Duration < limit
		},
	}
}

func BodyContains(label, substr string) Definition {
	return Definition{
		Label: label,
		Predicate: func(r workflow.Response) bool {
			return strings.Contains(r.Body, substr)
		},
	}
}

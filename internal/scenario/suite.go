package scenario

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"contendq/internal/workflow"
)

// Suite is one configured family of scenarios. A run uses exactly one suite.
type Suite struct {
	Name      string
	Scenarios []Scenario
	// Setup provisions fixtures before any virtual user starts. Optional.
	Setup func(ctx context.Context, exec workflow.Executor, p Params) error
}

var suites = map[string]func() Suite{
	"admin": func() Suite {
		return Suite{Name: "admin", Scenarios: []Scenario{
			NewListTeams(),
			NewListQuestions(),
			NewListMysteries(),
			NewCreateQuestion(),
			NewCreateMystery(),
			NewUpdateTeam(),
		}}
	},
	"team": func() Suite {
		return Suite{Name: "team", Scenarios: []Scenario{NewTeamQuestion()}}
	},
	"mystery": func() Suite {
		return Suite{Name: "mystery", Scenarios: []Scenario{NewMystery()}}
	},
	"system": func() Suite {
		return Suite{Name: "system", Scenarios: []Scenario{
			NewTeamQuestion(),
			NewMystery(),
			NewListTeams(),
			NewMixed(),
		}}
	},
	"contention": func() Suite {
		return Suite{
			Name:      "contention",
			Scenarios: []Scenario{NewContention()},
			Setup:     ProvisionFixture,
		}
	},
}

// SuiteNames lists the registered suites in lexical order.
func SuiteNames() []string {
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LookupSuite(name string) (Suite, error) {
	build, ok := suites[strings.ToLower(name)]
	if !ok {
		return Suite{}, fmt.Errorf("unknown suite %q (available: %s)", name, strings.Join(SuiteNames(), ", "))
	}
	return build(), nil
}

// Reweight returns a copy of the suite with the given scenario weights
// applied. Scenarios not named keep their weight.
func (s Suite) Reweight(weights map[string]float64) (Suite, error) {
	if len(weights) == 0 {
		return s, nil
	}
	byName := make(map[string]int, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		byName[sc.Name()] = i
	}
	out := s
	out.Scenarios = append([]Scenario(nil), s.Scenarios...)
	for name, w := range weights {
		i, ok := byName[name]
		if !ok {
			return Suite{}, fmt.Errorf("suite %s has no scenario %q", s.Name, name)
		}
		out.Scenarios[i] = WithWeight(out.Scenarios[i], w)
	}
	return out, nil
}

// Selector builds the selector for the suite's scenarios.
func (s Suite) Selector() (Selector, error) {
	sel, err := NewSelector(s.Scenarios)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", s.Name, err)
	}
	return sel, nil
}

type weightsFile struct {
	Weights map[string]float64 `yaml:"weights"`
}

// ParseWeightsYAML reads a document of the form
//
//	weights:
//	  team-question: 3
//	  mystery: 1
func ParseWeightsYAML(data []byte) (map[string]float64, error) {
	var f weightsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid weights YAML: %w", err)
	}
	for name, w := range f.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("weight for %s must be a finite number", name)
		}
		if w < 0 {
			return nil, fmt.Errorf("weight for %s cannot be negative", name)
		}
	}
	return f.Weights, nil
}

func LoadWeights(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file %s: %w", path, err)
	}
	return ParseWeightsYAML(data)
}

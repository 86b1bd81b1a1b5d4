package check

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contendq/internal/stats"
	"contendq/internal/workflow"
)

func TestEvaluateIsolatesBrokenChecks(t *testing.T) {
	resp := workflow.Response{StatusCode: 200, Duration: 10 * time.Millisecond}

	results := Evaluate(resp, []Definition{
		StatusIn("ok", 200),
		{Label: "panics", Predicate: func(workflow.Response) bool { panic("boom") }},
		{Label: "nil predicate"},
		DurationUnder("fast", time.Second),
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.False(t, results[2].Passed)
	assert.True(t, results[3].Passed)
	assert.Equal(t, "panics", results[1].Label)
	assert.False(t, results[0].At.IsZero())
}

func TestEvaluateDoesNotMutateResponse(t *testing.T) {
	resp := workflow.Response{StatusCode: 400, Body: `{"detail":"x"}`}
	Evaluate(resp, []Definition{{
		Label: "tries to mutate",
		Predicate: func(r workflow.Response) bool {
			r.StatusCode = 200
			return true
		},
	}})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestEngineForwardsEveryResult(t *testing.T) {
	agg := stats.NewAggregator()
	e := NewEngine(agg)

	e.Run(workflow.Response{StatusCode: 500}, []Definition{
		StatusIn("created", 200),
		Responded("responded"),
	})
	e.Run(workflow.Response{StatusCode: 200}, []Definition{
		StatusIn("created", 200),
	})

	snap := agg.Snapshot()
	assert.Equal(t, stats.RateCounts{Passes: 1, Total: 3}, snap.RateCounts[RateAll])
	assert.InDelta(t, 0.5, snap.Rate(LabelRate("created")), 1e-9)
	assert.Equal(t, 0.0, snap.Rate(LabelRate("responded")))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		resp workflow.Response
		want bool
	}{
		{"status match", StatusIn("s", 200, 400), workflow.Response{StatusCode: 400}, true},
		{"status miss", StatusIn("s", 200, 400), workflow.Response{StatusCode: 404}, false},
		{"responded 404", Responded("r"), workflow.Response{StatusCode: 404}, true},
		{"responded 503", Responded("r"), workflow.Response{StatusCode: 503}, false},
		{"responded transport", Responded("r"), workflow.Response{StatusCode: 0}, false},
		{"fast", DurationUnder("d", time.Second), workflow.Response{StatusCode: 200, Duration: time.Millisecond}, true},
		{"slow", DurationUnder("d", time.Second), workflow.Response{StatusCode: 200, Duration: 2 * time.Second}, false},
		{"transport never fast", DurationUnder("d", time.Second), workflow.Response{}, false},
		{"body", BodyContains("b", "alloted already"), workflow.Response{Body: "This question is alloted already"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.def.Predicate(tt.resp))
		})
	}
}

package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contendq/internal/runner"
	"contendq/internal/scenario"
	"contendq/internal/workflow"
)

func TestHeadlessRunPrintsSummary(t *testing.T) {
	exec := workflow.ExecutorFunc(func(_ context.Context, req workflow.Request) workflow.Response {
		if req.Path == scenario.PathTeamQuestions {
			return workflow.Response{StatusCode: 400, Body: `{"detail":"This question is alloted already"}`}
		}
		return workflow.Response{StatusCode: 200, Body: `{}`}
	})
	cfg := runner.Config{
		BaseURL:    "http://unused",
		NumUsers:   2,
		Iterations: 10,
		TimeoutSec: 5,
		Suite:      "team",
		Params:     scenario.DefaultParams(),
	}
	r, err := runner.NewRunner(cfg, make(runner.StatsUpdateChan, 100), runner.WithExecutor(exec))
	require.NoError(t, err)

	var out bytes.Buffer
	snap, _, err := run(context.Background(), r, &out)
	require.NoError(t, err)

	assert.Equal(t, int64(10), snap.Counter(scenario.MetricConflictOperations))
	text := out.String()
	assert.Contains(t, text, "STARTING CONTENDQ LOAD TEST")
	assert.Contains(t, text, "Suite      : team (team-question)")
	assert.Contains(t, text, "Total Operations      : 10")
	assert.Contains(t, text, "Conflicts (400)       : 10")
	assert.Contains(t, text, "question_already_allotted")
	assert.Contains(t, text, "100%")
	assert.NotContains(t, text, "FAILURE SUMMARY")
}

func TestHeadlessRunReportsSetupError(t *testing.T) {
	exec := workflow.ExecutorFunc(func(context.Context, workflow.Request) workflow.Response {
		return workflow.Response{StatusCode: workflow.StatusTransportError}
	})
	cfg := runner.Config{BaseURL: "http://unused", NumUsers: 1, Iterations: 1, TimeoutSec: 5, Suite: "contention", Params: scenario.DefaultParams()}
	r, err := runner.NewRunner(cfg, nil, runner.WithExecutor(exec))
	require.NoError(t, err)

	var out bytes.Buffer
	_, _, err = run(context.Background(), r, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "provision fixture question Q123")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[----------]", progressBar(0, 10))
	assert.Equal(t, "[█████-----]", progressBar(0.5, 10))
	assert.Equal(t, "[██████████]", progressBar(1.7, 10))
}

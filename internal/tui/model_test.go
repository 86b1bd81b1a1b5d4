package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contendq/internal/runner"
	"contendq/internal/scenario"
	"contendq/internal/stats"
	"contendq/internal/storage"
	"contendq/internal/workflow"
)

func newTestRunner(t *testing.T) *runner.Runner {
	t.Helper()
	cfg := runner.Config{
		BaseURL:    "http://unused/siamMPL",
		NumUsers:   2,
		Iterations: 10,
		TimeoutSec: 5,
		Suite:      "admin",
		Params:     scenario.DefaultParams(),
	}
	exec := workflow.ExecutorFunc(func(context.Context, workflow.Request) workflow.Response {
		return workflow.Response{StatusCode: 200, Body: "[]", Duration: time.Millisecond}
	})
	r, err := runner.NewRunner(cfg, make(runner.StatsUpdateChan, 100), runner.WithExecutor(exec))
	require.NoError(t, err)
	return r
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func key(s string) tea.KeyMsg {
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestRunCompletesAndShowsResult(t *testing.T) {
	store := newTestStore(t)
	r := newTestRunner(t)

	var finished bool
	m := NewModel(context.Background(), r, store, func(snap stats.Snapshot, elapsed time.Duration) (string, error) {
		finished = true
		item := storage.NewHistoryItem(time.Now(), elapsed, r.Cfg, r.Seed.Tag(), snap)
		return "saved " + item.ID, store.Save(item)
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	msg := m.startRun()()
	done, ok := msg.(runDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.True(t, finished)
	assert.EqualValues(t, 10, done.snap.Counter(scenario.MetricTotalOperations))

	m = update(t, m, done)
	assert.False(t, m.Running)
	assert.Equal(t, ViewResult, m.CurrentView)
	assert.Contains(t, m.StatusMsg, "saved ")
	assert.Contains(t, m.View(), "Test Complete")
	assert.Len(t, m.HistoryView.Items, 1)

	m = update(t, m, key("tab"))
	assert.Equal(t, ViewHistory, m.CurrentView)
}

func TestStatsUpdatesFeedLiveView(t *testing.T) {
	m := NewModel(context.Background(), newTestRunner(t), nil, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, statsMsg(runner.StatsSnapshot{Operations: 42, Successful: 40, Progress: 0.5}))
	assert.EqualValues(t, 42, m.LiveView.Stats.Operations)
	assert.Contains(t, m.View(), "OPS:  42")
}

func TestQuitStopsRunBeforeExiting(t *testing.T) {
	m := NewModel(context.Background(), newTestRunner(t), nil, nil)

	m = update(t, m, key("q"))
	assert.True(t, m.Stopping)
	assert.True(t, m.Running)
	assert.Error(t, m.ctx.Err())

	m = update(t, m, runDoneMsg{err: nil})
	assert.False(t, m.Stopping)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTabSkipsUnavailableViews(t *testing.T) {
	m := NewModel(context.Background(), newTestRunner(t), nil, nil)

	// running, no store: only the live view is reachable
	m = update(t, m, key("tab"))
	assert.Equal(t, ViewLive, m.CurrentView)

	m.Running = false
	m = update(t, m, key("tab"))
	assert.Equal(t, ViewResult, m.CurrentView)
	m = update(t, m, key("tab"))
	assert.Equal(t, ViewLive, m.CurrentView)
}

func TestRunErrorIsShown(t *testing.T) {
	m := NewModel(context.Background(), newTestRunner(t), nil, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m = update(t, m, runDoneMsg{err: errors.New("provision fixture question Q123: status 500")})
	assert.Error(t, m.Err)
	assert.Contains(t, m.View(), "Run Failed")
}

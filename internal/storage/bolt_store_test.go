package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contendq/internal/runner"
	"contendq/internal/scenario"
	"contendq/internal/stats"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot(ops int64) stats.Snapshot {
	agg := stats.NewAggregator()
	agg.Add(scenario.MetricTotalOperations, ops)
	agg.Add(scenario.MetricSuccessfulOperations, ops-1)
	agg.Observe(scenario.RateSystemHealthy, true)
	agg.Record(scenario.TrendHTTPReqDuration, 12*time.Millisecond)
	return agg.Snapshot()
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	cfg := runner.Config{BaseURL: "http://x/siamMPL", NumUsers: 5, Iterations: 10, Suite: "team"}
	started := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	item := NewHistoryItem(started, 3*time.Second, cfg, "abc", sampleSnapshot(10))

	require.NoError(t, s.Save(item))

	got, err := s.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "20261016T093000.000-abc", got.ID)
	assert.Equal(t, "team", got.Config.Suite)
	assert.Equal(t, int64(10), got.Summary.Operations)
	assert.Equal(t, int64(9), got.Summary.Successful)
	assert.Equal(t, 1.0, got.Summary.HealthyRate)
	assert.Equal(t, int64(10), got.Snapshot.Counter(scenario.MetricTotalOperations))
	assert.Equal(t, int64(1), got.Snapshot.Trends[scenario.TrendHTTPReqDuration].Count)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirstAndPrunes(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxItems+5; i++ {
		item := NewHistoryItem(start.Add(time.Duration(i)*time.Minute), time.Second, runner.Config{}, fmt.Sprint(i), sampleSnapshot(int64(i+1)))
		require.NoError(t, s.Save(item))
	}

	items, err := s.List()
	require.NoError(t, err)
	require.Len(t, items, MaxItems)
	assert.Equal(t, int64(MaxItems+5), items[0].Summary.Operations)
	assert.Equal(t, int64(6), items[len(items)-1].Summary.Operations)
}

func TestStoreReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	item := NewHistoryItem(time.Now(), time.Second, runner.Config{Suite: "admin"}, "r1", sampleSnapshot(2))
	require.NoError(t, s.Save(item))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	items, err := s.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

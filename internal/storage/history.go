package storage

import (
	"time"

	"contendq/internal/runner"
	"contendq/internal/scenario"
	"contendq/internal/stats"
)

// MaxItems is how many runs the history keeps; older ones are pruned on Save.
const MaxItems = 100

type HistoryItem struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Elapsed   time.Duration  `json:"elapsed"`
	Config    runner.Config  `json:"config"`
	Summary   RunSummary     `json:"summary"`
	Snapshot  stats.Snapshot `json:"snapshot"`
}

// RunSummary is the headline of a run, cheap to show in lists.
type RunSummary struct {
	Operations  int64   `json:"operations"`
	Successful  int64   `json:"successful"`
	Conflicts   int64   `json:"conflicts"`
	Unexpected  int64   `json:"unexpected"`
	HealthyRate float64 `json:"healthy_rate"`
	P99Ms       float64 `json:"p99_ms"`
}

// NewHistoryItem records a finished run. IDs sort by start time, which is the
// order List relies on.
func NewHistoryItem(started time.Time, elapsed time.Duration, cfg runner.Config, runTag string, snap stats.Snapshot) HistoryItem {
	return HistoryItem{
		ID:        started.UTC().Format("20060102T150405.000") + "-" + runTag,
		Timestamp: started,
		Elapsed:   elapsed,
		Config:    cfg,
		Summary:   Summarize(snap),
		Snapshot:  snap,
	}
}

func Summarize(snap stats.Snapshot) RunSummary {
	return RunSummary{
		Operations:  snap.Counter(scenario.MetricTotalOperations),
		Successful:  snap.Counter(scenario.MetricSuccessfulOperations),
		Conflicts:   snap.Counter(scenario.MetricConflictOperations),
		Unexpected:  snap.Counter(scenario.MetricUnexpectedOperations),
		HealthyRate: snap.Rate(scenario.RateSystemHealthy),
		P99Ms:       snap.Trends[scenario.TrendHTTPReqDuration].P99Ms,
	}
}

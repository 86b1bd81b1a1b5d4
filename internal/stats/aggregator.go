package stats

import (
	"sort"
	"sync"
	"time"
)

// Recorder is the write side of the aggregator handed to scenarios and the
// check engine.
type Recorder interface {
	Increment(name string)
	Add(name string, n int64)
	Observe(name string, ok bool)
	Record(name string, d time.Duration)
}

// Aggregator holds the process-wide counters, rates and latency trends of a
// run. Every method is safe for concurrent use. Metrics are independent of
// each other; a Snapshot taken while writers are active is eventually
// consistent, not a point-in-time cut.
type Aggregator struct {
	counters sync.Map // name -> *Counter
	rates    sync.Map // name -> *Rate
	trends   sync.Map // name -> *SafeHistogram
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Register pre-creates metrics so they show up in snapshots even when never
// written.
func (a *Aggregator) Register(counters, rates []string) {
	for _, name := range counters {
		a.Counter(name)
	}
	for _, name := range rates {
		a.Rate(name)
	}
}

func (a *Aggregator) Counter(name string) *Counter {
	if c, ok := a.counters.Load(name); ok {
		return c.(*Counter)
	}
	c, _ := a.counters.LoadOrStore(name, &Counter{})
	return c.(*Counter)
}

func (a *Aggregator) Rate(name string) *Rate {
	if r, ok := a.rates.Load(name); ok {
		return r.(*Rate)
	}
	r, _ := a.rates.LoadOrStore(name, &Rate{})
	return r.(*Rate)
}

func (a *Aggregator) Trend(name string) *SafeHistogram {
	if h, ok := a.trends.Load(name); ok {
		return h.(*SafeHistogram)
	}
	h, _ := a.trends.LoadOrStore(name, NewSafeHistogram())
	return h.(*SafeHistogram)
}

func (a *Aggregator) Increment(name string) {
	a.Counter(name).Add(1)
}

func (a *Aggregator) Add(name string, n int64) {
	a.Counter(name).Add(n)
}

func (a *Aggregator) Observe(name string, ok bool) {
	a.Rate(name).Observe(ok)
}

func (a *Aggregator) Record(name string, d time.Duration) {
	a.Trend(name).RecordDuration(d)
}

// Trend is the latency summary of one histogram.
type Trend struct {
	Count int64   `json:"count" yaml:"count"`
	AvgMs float64 `json:"avg_ms" yaml:"avg_ms"`
	P50Ms float64 `json:"p50_ms" yaml:"p50_ms"`
	P90Ms float64 `json:"p90_ms" yaml:"p90_ms"`
	P95Ms float64 `json:"p95_ms" yaml:"p95_ms"`
	P99Ms float64 `json:"p99_ms" yaml:"p99_ms"`
	MaxMs float64 `json:"max_ms" yaml:"max_ms"`
}

// RateCounts keeps the raw numerator/denominator next to the rate.
type RateCounts struct {
	Passes int64 `json:"passes" yaml:"passes"`
	Total  int64 `json:"total" yaml:"total"`
}

type Snapshot struct {
	Counters   map[string]int64      `json:"counters" yaml:"counters"`
	Rates      map[string]float64    `json:"rates" yaml:"rates"`
	RateCounts map[string]RateCounts `json:"rate_counts" yaml:"rate_counts"`
	Trends     map[string]Trend      `json:"trends" yaml:"trends"`
}

func (a *Aggregator) Snapshot() Snapshot {
	s := Snapshot{
		Counters:   make(map[string]int64),
		Rates:      make(map[string]float64),
		RateCounts: make(map[string]RateCounts),
		Trends:     make(map[string]Trend),
	}
	a.counters.Range(func(k, v any) bool {
		s.Counters[k.(string)] = v.(*Counter).Value()
		return true
	})
	a.rates.Range(func(k, v any) bool {
		passes, total := v.(*Rate).Counts()
		s.RateCounts[k.(string)] = RateCounts{Passes: passes, Total: total}
		if total > 0 {
			s.Rates[k.(string)] = float64(passes) / float64(total)
		} else {
			s.Rates[k.(string)] = 0
		}
		return true
	})
	a.trends.Range(func(k, v any) bool {
		s.Trends[k.(string)] = v.(*SafeHistogram).Summary()
		return true
	})
	return s
}

func (s Snapshot) Counter(name string) int64 {
	return s.Counters[name]
}

func (s Snapshot) Rate(name string) float64 {
	return s.Rates[name]
}

// SortedKeys returns map keys in lexical order for stable output.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxTrackable = int64(10 * time.Minute / time.Microsecond)

// SafeHistogram is a thread-safe wrapper around hdrhistogram
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func NewSafeHistogram() *SafeHistogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(1, maxTrackable, 3)
	return &SafeHistogram{hist: h}
}

// RecordDuration records d in microseconds, clamped to the trackable range.
func (h *SafeHistogram) RecordDuration(d time.Duration) {
	v := d.Microseconds()
	if v < 1 {
		v = 1
	}
	if v > maxTrackable {
		v = maxTrackable
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.hist.RecordValue(v)
}

func (h *SafeHistogram) ValueAtQuantile(q float64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.ValueAtQuantile(q)
}

func (h *SafeHistogram) Max() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Max()
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

// Summary reads every statistic under one lock so the values agree with each
// other.
func (h *SafeHistogram) Summary() Trend {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Trend{
		Count: h.hist.TotalCount(),
		AvgMs: h.hist.Mean() / 1000.0,
		P50Ms: float64(h.hist.ValueAtQuantile(50)) / 1000.0,
		P90Ms: float64(h.hist.ValueAtQuantile(90)) / 1000.0,
		P95Ms: float64(h.hist.ValueAtQuantile(95)) / 1000.0,
		P99Ms: float64(h.hist.ValueAtQuantile(99)) / 1000.0,
		MaxMs: float64(h.hist.Max()) / 1000.0,
	}
}

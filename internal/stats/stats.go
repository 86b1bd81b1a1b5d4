package stats

import (
	"sync/atomic"
)

// Counter is an add-only integer metric.
type Counter struct {
	v atomic.Int64
}

func (c *Counter) Add(n int64) {
	if n <= 0 {
		return
	}
	c.v.Add(n)
}

func (c *Counter) Value() int64 {
	return c.v.Load()
}

// Rate is the fraction of boolean observations that were true. Only the two
// running counts are kept.
type Rate struct {
	passes atomic.Int64
	total  atomic.Int64
}

func (r *Rate) Observe(ok bool) {
	// total before passes: a reader that loads passes first never sees
	// passes > total.
	r.total.Add(1)
	if ok {
		r.passes.Add(1)
	}
}

// Counts returns (passes, total) with passes <= total.
func (r *Rate) Counts() (int64, int64) {
	passes := r.passes.Load()
	total := r.total.Load()
	return passes, total
}

// Value is passes/total, 0 when nothing was observed.
func (r *Rate) Value() float64 {
	passes, total := r.Counts()
	if total == 0 {
		return 0
	}
	return float64(passes) / float64(total)
}

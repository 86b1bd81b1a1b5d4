package stats

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes an Aggregator to a Prometheus registry. Metric names are
// only known at scrape time, so it registers as an unchecked collector.
type Collector struct {
	agg       *Aggregator
	namespace string
}

func NewCollector(agg *Aggregator, namespace string) *Collector {
	return &Collector{agg: agg, namespace: namespace}
}

func (c *Collector) Describe(chan<- *prometheus.Desc) {}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.agg.Snapshot()

	for _, name := range SortedKeys(snap.Counters) {
		desc := prometheus.NewDesc(c.metricName(name, "total"), "counter "+name, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(snap.Counters[name]))
	}
	for _, name := range SortedKeys(snap.Rates) {
		desc := prometheus.NewDesc(c.metricName(name, "ratio"), "rate "+name, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, snap.Rates[name])
	}
	for _, name := range SortedKeys(snap.Trends) {
		t := snap.Trends[name]
		desc := prometheus.NewDesc(c.metricName(name, "milliseconds"), "latency trend "+name, []string{"quantile"}, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, t.P50Ms, "0.5")
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, t.P90Ms, "0.9")
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, t.P99Ms, "0.99")
	}
}

func (c *Collector) metricName(name, suffix string) string {
	return prometheus.BuildFQName(c.namespace, "", sanitize(name)+"_"+suffix)
}

func sanitize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Package skipdictprom exports skipdict map statistics to Prometheus.
package skipdictprom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/metailurini/skipdict"
)

// Collector reads Stats from a source on every scrape. The source must not be
// mutated concurrently with a scrape; callers that mutate from another
// goroutine wrap the source with their own lock.
type Collector struct {
	src skipdict.StatsSource

	size   *prometheus.Desc
	level  *prometheus.Desc
	nodes  *prometheus.Desc
	ops    *prometheus.Desc
	levels *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector labelling every series with map=name.
func NewCollector(name string, src skipdict.StatsSource) *Collector {
	labels := prometheus.Labels{"map": name}
	return &Collector{
		src: src,
		size: prometheus.NewDesc("skipdict_size",
			"Number of entries in the map.", nil, labels),
		level: prometheus.NewDesc("skipdict_level",
			"Current effective level of the skip list.", nil, labels),
		nodes: prometheus.NewDesc("skipdict_nodes",
			"Live node allocations, head sentinel included.", nil, labels),
		ops: prometheus.NewDesc("skipdict_operations_total",
			"Operations applied to the map, by kind.", []string{"op"}, labels),
		levels: prometheus.NewDesc("skipdict_level_changes_total",
			"Changes of the effective level, by direction.", []string{"direction"}, labels),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.level
	ch <- c.nodes
	ch <- c.ops
	ch <- c.levels
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Len))
	ch <- prometheus.MustNewConstMetric(c.level, prometheus.GaugeValue, float64(s.Level))
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(s.Nodes))

	for op, v := range map[string]uint64{
		"insert":           s.Inserts,
		"overwrite":        s.Overwrites,
		"remove":           s.Removals,
		"pop":              s.Pops,
		"miss":             s.Misses,
		"allocation_error": s.AllocFailures,
	} {
		ch <- prometheus.MustNewConstMetric(c.ops, prometheus.CounterValue, float64(v), op)
	}
	ch <- prometheus.MustNewConstMetric(c.levels, prometheus.CounterValue, float64(s.LevelGrows), "grow")
	ch <- prometheus.MustNewConstMetric(c.levels, prometheus.CounterValue, float64(s.LevelShrinks), "shrink")
}

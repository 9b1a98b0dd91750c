package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "btree"

// Collector tracks per-collection operation counts and tree shape.
type Collector struct {
	ops       *prometheus.CounterVec
	size      *prometheus.GaugeVec
	height    *prometheus.GaugeVec
	snapshots prometheus.Gauge
}

func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations applied to a collection, by kind.",
		}, []string{"collection", "op"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_size",
			Help:      "Number of key-value pairs in a collection.",
		}, []string{"collection"}),
		height: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_height",
			Help:      "Routing levels above the leaves of a collection.",
		}, []string{"collection"}),
		snapshots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshots_retained",
			Help:      "Snapshots currently retained.",
		}),
	}

	for _, m := range []prometheus.Collector{c.ops, c.size, c.height, c.snapshots} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveOp(collection, op string) {
	if c == nil {
		return
	}
	c.ops.WithLabelValues(collection, op).Inc()
}

func (c *Collector) ObserveTree(collection string, count, height int) {
	if c == nil {
		return
	}
	c.size.WithLabelValues(collection).Set(float64(count))
	c.height.WithLabelValues(collection).Set(float64(height))
}

func (c *Collector) SetSnapshots(n int) {
	if c == nil {
		return
	}
	c.snapshots.Set(float64(n))
}

// Forget drops every series of a removed collection.
func (c *Collector) Forget(collection string) {
	if c == nil {
		return
	}
	c.ops.DeletePartialMatch(prometheus.Labels{"collection": collection})
	c.size.DeleteLabelValues(collection)
	c.height.DeleteLabelValues(collection)
}

// Summary renders every gathered series as one sorted line each.
func Summary(g prometheus.Gatherer) (string, error) {
	families, err := g.Gather()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%s", lp.GetName(), lp.GetValue()))
			}

			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}

			lines = append(lines, fmt.Sprintf("%s{%s} %s", mf.GetName(), strings.Join(labels, ","), humanize.Comma(int64(v))))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

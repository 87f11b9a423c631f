// Package metrics exposes reconciliation and graph statistics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/branchtalk/internal/reconciler"
	"github.com/specialistvlad/branchtalk/internal/txn"
)

// Collector holds the collectors on a private registry, so several
// instances can coexist in one process (tests, multiple sessions).
type Collector struct {
	registry *prometheus.Registry

	cycles     *prometheus.CounterVec
	operations *prometheus.CounterVec
	discarded  *prometheus.CounterVec
	nodes      prometheus.Gauge
	edges      prometheus.Gauge
}

var _ reconciler.Observer = (*Collector)(nil)

// New creates a collector whose metric names are prefixed with namespace.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_cycles_total",
				Help:      "Reconciliation cycles by path and whether a collaborator call failed.",
			},
			[]string{"path", "failed"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_operations_total",
				Help:      "Transaction operations by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_results_discarded_total",
				Help:      "Collaborator results dropped because their input changed.",
			},
			[]string{"path"},
		),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the graph after the last cycle.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the graph after the last cycle.",
		}),
	}
	c.registry.MustRegister(c.cycles, c.operations, c.discarded, c.nodes, c.edges)
	return c
}

// Registry returns the registry holding every collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) CycleFinished(path reconciler.Path, failed bool) {
	c.cycles.WithLabelValues(string(path), strconv.FormatBool(failed)).Inc()
}

func (c *Collector) BatchApplied(channelID string, res *txn.Result) {
	if res == nil {
		return
	}
	c.operations.WithLabelValues(channelID, "applied").Add(float64(res.Applied))
	c.operations.WithLabelValues(channelID, "skipped").Add(float64(res.Skipped()))
}

func (c *Collector) ResultDiscarded(path reconciler.Path) {
	c.discarded.WithLabelValues(string(path)).Inc()
}

func (c *Collector) GraphSize(nodes, edges int) {
	c.nodes.Set(float64(nodes))
	c.edges.Set(float64(edges))
}

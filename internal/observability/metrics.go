package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StressMetrics exposes the live counters of a stress run. Each instance
// owns an independent registry so repeated runs in one process never
// register colliding collectors.
type StressMetrics struct {
	registry *prometheus.Registry

	// Ops counts completed operations by kind: insert, remove, search.
	Ops *prometheus.CounterVec

	// Failures counts oracle divergences and failed verifications.
	Failures prometheus.Counter

	// Rebuilds mirrors the rebuild counter of the tree under test.
	Rebuilds prometheus.Gauge

	// TreeSize mirrors the key count of the tree under test.
	TreeSize prometheus.Gauge
}

// NewStressMetrics creates the stress-run collectors on a fresh registry.
func NewStressMetrics() *StressMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &StressMetrics{
		registry: registry,
		Ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scapegoat_stress_ops_total",
			Help: "Completed stress operations by kind.",
		}, []string{"op"}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "scapegoat_stress_failures_total",
			Help: "Oracle divergences and failed verifications.",
		}),
		Rebuilds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scapegoat_tree_rebuilds",
			Help: "Subtree rebuilds performed by the tree under test.",
		}),
		TreeSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scapegoat_tree_size",
			Help: "Keys currently stored in the tree under test.",
		}),
	}
}

// Handler returns the scrape handler for the run's registry.
func (m *StressMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package vfs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the per-operation counters and latency histograms the
// operations layer (§4.G) increments, mirroring the teacher's Prometheus
// wiring around its FUSE ops.
type Metrics struct {
	ops      *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	registry *prometheus.Registry
}

// NewMetrics builds a fresh registry and the counters/histograms
// registered against it, so multiple Contexts in the same process (e.g.
// in tests) don't collide on prometheus's default global registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vfscore_operations_total",
			Help: "Count of VFS operations by name.",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vfscore_operation_errors_total",
			Help: "Count of VFS operation failures by name and error kind.",
		}, []string{"op", "errno"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vfscore_operation_latency_seconds",
			Help:    "VFS operation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.ops, m.errors, m.latency)
	return m
}

// Registry exposes the underlying prometheus.Registry for wiring into an
// HTTP handler (promhttp.HandlerFor).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// observe records one completed operation's outcome and latency.
func (m *Metrics) observe(op string, start time.Time, err error) {
	m.ops.WithLabelValues(op).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(op, FsErr(err).Repr()).Inc()
	}
}

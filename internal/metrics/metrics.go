// Package metrics exposes Prometheus collectors for the directory store and its HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist (e.g. in tests).
type Metrics struct {
	reg *prometheus.Registry

	operations     *prometheus.CounterVec
	directorySize  prometheus.Gauge
	seedFetch      prometheus.Histogram
	requestCounter *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New builds and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_operations_total",
				Help: "Directory store operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		directorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userdir_directory_size",
			Help: "Number of users in the directory",
		}),
		seedFetch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "userdir_seed_fetch_seconds",
			Help:    "Seed fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "userdir_http_request_duration_seconds",
				Help:    "Request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
	m.reg.MustRegister(m.operations, m.directorySize, m.seedFetch, m.requestCounter, m.latency)
	return m
}

// Operation counts one store operation. outcome is "ok" or an error class.
func (m *Metrics) Operation(op, outcome string) {
	m.operations.WithLabelValues(op, outcome).Inc()
}

// DirectorySize records the current number of users.
func (m *Metrics) DirectorySize(n int) {
	m.directorySize.Set(float64(n))
}

// SeedFetch records how long the seed fetch took.
func (m *Metrics) SeedFetch(d time.Duration) {
	m.seedFetch.Observe(d.Seconds())
}

// ObserveRequest records HTTP request metrics.
func (m *Metrics) ObserveRequest(path, method, status string, seconds float64) {
	m.requestCounter.WithLabelValues(path, method, status).Inc()
	m.latency.WithLabelValues(path, method).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

package client

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
)

// Metrics records backend request counts and latencies.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates client metrics registered on a private registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend requests by operation, HTTP status and error code.",
		}, []string{"op", "status", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency by operation.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"op"}),
	}

	reg.MustRegister(m.requests, m.latency)
	return m
}

// Registry exposes the underlying registry for export and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Observe records one attempt. status is 0 for transport failures.
func (m *Metrics) Observe(op string, status int, d time.Duration, err error) {
	if m == nil {
		return
	}
	code := "ok"
	if err != nil {
		code = string(mserrors.Classify(err))
	}
	m.requests.WithLabelValues(op, strconv.Itoa(status), code).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}

// WriteTextfile writes the current metrics in Prometheus text format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Package metrics provides Prometheus instrumentation for the followcast
// server. It implements tracker.Recorder so the tracker service can report
// store latency, analytics outcomes and the sample count without knowing
// about Prometheus.
//
// Metrics exposed:
//   - followcast_store_operation_duration_seconds: Histogram of store call latency by op
//   - followcast_store_errors_total: Counter of failed store calls by op and reason
//   - followcast_analytics_total: Counter of analytics computations by kind and outcome
//   - followcast_samples: Gauge of stored samples last seen
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HatiCode/followcast/pkg/storage"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	StoreOpDuration *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec
	AnalyticsTotal  *prometheus.CounterVec
	Samples         prometheus.Gauge
}

// New registers the metrics with the default Prometheus registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		StoreOpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "followcast_store_operation_duration_seconds",
			Help:    "Duration of storage operations by op",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),

		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "followcast_store_errors_total",
			Help: "Total number of failed storage operations by op and reason",
		}, []string{"op", "reason"}),

		AnalyticsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "followcast_analytics_total",
			Help: "Total number of analytics computations by kind and outcome",
		}, []string{"kind", "outcome"}),

		Samples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "followcast_samples",
			Help: "Number of stored follower samples last seen",
		}),
	}
}

// ObserveStoreOp records the latency of one store call and counts it as an
// error by reason when err is non-nil.
func (m *Metrics) ObserveStoreOp(op string, seconds float64, err error) {
	m.StoreOpDuration.WithLabelValues(op).Observe(seconds)
	if err != nil {
		m.StoreErrors.WithLabelValues(op, reason(err)).Inc()
	}
}

// RecordAnalytics counts one analytics computation of kind with its outcome.
func (m *Metrics) RecordAnalytics(kind, outcome string) {
	m.AnalyticsTotal.WithLabelValues(kind, outcome).Inc()
}

// SetSamples sets the gauge of stored samples to n.
func (m *Metrics) SetSamples(n int) {
	m.Samples.Set(float64(n))
}

// reason keeps the label set bounded.
func reason(err error) string {
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, storage.ErrInvalidSample), errors.Is(err, storage.ErrInvalidPage):
		return "invalid"
	default:
		return "other"
	}
}

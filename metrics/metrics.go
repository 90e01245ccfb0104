// Package metrics exposes Prometheus instrumentation for API clients. All
// methods are safe on a nil *Metrics, so callers that run without a registry
// skip instrumentation without guarding every call site.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const promNamespace = "tc"

// Options configure a Metrics instance.
type Options struct {
	// Registerer receives the collectors, prometheus.DefaultRegisterer
	// when nil.
	Registerer prometheus.Registerer

	// DurationBuckets override the request duration histogram buckets.
	DurationBuckets []float64
}

// Metrics counts API requests and observes their round-trip duration,
// partitioned by service and action.
type Metrics struct {
	requestsM        *prometheus.CounterVec
	requestErrorsM   *prometheus.CounterVec
	requestDurationM *prometheus.HistogramVec
}

// New builds the collectors and registers them with opts.Registerer.
func New(opts Options) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "requests_total",
		Help:      "The total of dispatched API requests.",
	}, []string{"tc_service", "tc_action"})

	requestErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "request_errors",
		Help:      "The total of failed API requests.",
	}, []string{"tc_service", "tc_action"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Name:      "request_duration_seconds",
		Help:      "Duration in seconds of an API request round trip.",
		Buckets:   opts.DurationBuckets,
	}, []string{"tc_service", "tc_action"})

	registerer := opts.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	registerer.MustRegister(requests, requestErrors, requestDuration)

	return &Metrics{
		requestsM:        requests,
		requestErrorsM:   requestErrors,
		requestDurationM: requestDuration,
	}
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the shared instance registered with the default
// registerer. The first call registers the collectors.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New(Options{})
	})
	return defaultMetrics
}

// IncRequests counts one dispatched request attempt.
func (m *Metrics) IncRequests(service, action string) {
	if m == nil {
		return
	}
	m.requestsM.WithLabelValues(service, action).Inc()
}

// IncRequestErrors counts one failed request.
func (m *Metrics) IncRequestErrors(service, action string) {
	if m == nil {
		return
	}
	m.requestErrorsM.WithLabelValues(service, action).Inc()
}

// MeasureRequest observes the round-trip duration of one request.
func (m *Metrics) MeasureRequest(service, action string, start time.Time) {
	if m == nil {
		return
	}
	m.requestDurationM.WithLabelValues(service, action).Observe(time.Since(start).Seconds())
}

// Package metrics exposes the gateway's Prometheus instrumentation.
//
// All collectors live on a private registry so the /metrics endpoint serves
// only gateway series, never the Go runtime defaults of some shared global.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for authentication attempts.
const (
	OutcomeOK                 = "ok"
	OutcomeMissingHeader      = "missing_header"
	OutcomeMalformedTimestamp = "malformed_timestamp"
	OutcomeStaleTimestamp     = "stale_timestamp"
	OutcomeInvalidSignature   = "invalid_signature"
)

// Metrics holds the gateway's collectors.
type Metrics struct {
	registry *prometheus.Registry

	authOutcomes    *prometheus.CounterVec
	complaintsTotal prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	authOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grouse",
		Name:      "auth_outcomes_total",
		Help:      "Authentication attempts by outcome.",
	}, []string{"outcome"})

	complaintsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grouse",
		Name:      "complaints_recorded_total",
		Help:      "Complaints successfully written to storage.",
	})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grouse",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(authOutcomes, complaintsTotal, requestDuration)

	return &Metrics{
		registry:        registry,
		authOutcomes:    authOutcomes,
		complaintsTotal: complaintsTotal,
		requestDuration: requestDuration,
	}
}

// AuthOutcome counts one authentication attempt with the given outcome label.
func (m *Metrics) AuthOutcome(outcome string) {
	m.authOutcomes.WithLabelValues(outcome).Inc()
}

// ComplaintRecorded counts one stored complaint.
func (m *Metrics) ComplaintRecorded() {
	m.complaintsTotal.Inc()
}

// ObserveRequest records the duration of one request on the given route.
func (m *Metrics) ObserveRequest(route string, seconds float64) {
	m.requestDuration.WithLabelValues(route).Observe(seconds)
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AuthOutcomeCounter returns the counter for one outcome label.
func (m *Metrics) AuthOutcomeCounter(outcome string) prometheus.Counter {
	return m.authOutcomes.WithLabelValues(outcome)
}

// ComplaintsCounter returns the stored-complaints counter.
func (m *Metrics) ComplaintsCounter() prometheus.Counter {
	return m.complaintsTotal
}

package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for provider calls.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ListingsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_provider_requests_total",
			Help: "Provider searches issued, by outcome.",
		},
		[]string{"provider", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_provider_request_duration_seconds",
			Help:    "Provider search latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	listings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_provider_listings_total",
			Help: "Listings returned by providers.",
		},
		[]string{"provider"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_provider_errors_total",
			Help: "Provider errors by type.",
		},
		[]string{"provider", "error_type"},
	)

	registry.MustRegister(requests, duration, listings, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: duration,
		ListingsTotal:   listings,
		ErrorsTotal:     errorsTotal,
	}
}

// ObserveSuccess records a completed provider call.
func (m *Metrics) ObserveSuccess(provider string, d time.Duration, listings int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(provider, "ok").Inc()
	m.RequestDuration.WithLabelValues(provider).Observe(d.Seconds())
	m.ListingsTotal.WithLabelValues(provider).Add(float64(listings))
}

// ObserveError records a failed provider call.
func (m *Metrics) ObserveError(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(provider, "error").Inc()
	m.RequestDuration.WithLabelValues(provider).Observe(d.Seconds())
	m.ErrorsTotal.WithLabelValues(provider, ErrorLabel(err)).Inc()
}

// IncSkipped records a provider skipped for missing credentials.
func (m *Metrics) IncSkipped(provider string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(provider, "skipped").Inc()
}

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
	CacheEvents     *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightgate_requests_total",
				Help: "Total number of rate requests by operation, provider, and outcome",
			},
			[]string{"operation", "provider", "outcome"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "freightgate_request_duration_seconds",
				Help:    "Rate request duration in seconds by operation and provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		UpstreamErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightgate_upstream_errors_total",
				Help: "Total distributor API errors by provider and error kind",
			},
			[]string{"provider", "kind"},
		),
		CacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightgate_freight_cache_events_total",
				Help: "Freight estimate cache events (hit, miss, coalesced)",
			},
			[]string{"event"},
		),
	}
}

// RecordRequest records a rate request metric.
func (m *Metrics) RecordRequest(operation, provider, outcome string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, provider, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation, provider).Observe(duration)
}

// RecordUpstreamError records a distributor API error metric.
func (m *Metrics) RecordUpstreamError(provider, kind string) {
	m.UpstreamErrors.WithLabelValues(provider, kind).Inc()
}

// RecordCacheEvent records a freight cache event.
func (m *Metrics) RecordCacheEvent(event string) {
	m.CacheEvents.WithLabelValues(event).Inc()
}

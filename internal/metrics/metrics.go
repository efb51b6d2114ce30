// Package metrics exposes Prometheus collectors for provider calls, health
// transitions, and consensus quality.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/polytran/polytran/internal/health"
)

// Metrics holds every collector the engine records into.
//
// Exposed series:
//   - polytran_provider_requests_total{provider,outcome}
//   - polytran_provider_latency_seconds{provider}
//   - polytran_provider_health{provider} (0=disabled, 1=rate_limited, 2=available)
//   - polytran_provider_tokens_total{provider}
//   - polytran_consensus_agreement
//   - polytran_memory_hits_total
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	healthGau *prometheus.GaugeVec
	tokens    *prometheus.CounterVec
	agreement prometheus.Histogram
	memHits   prometheus.Counter
}

// New creates and registers all collectors on the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "polytran",
				Name:      "provider_requests_total",
				Help:      "Total provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "polytran",
				Name:      "provider_latency_seconds",
				Help:      "Provider call latency in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),
		healthGau: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "polytran",
				Name:      "provider_health",
				Help:      "Provider health state (0=disabled, 1=rate_limited, 2=available)",
			},
			[]string{"provider"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "polytran",
				Name:      "provider_tokens_total",
				Help:      "Total tokens consumed per provider",
			},
			[]string{"provider"},
		),
		agreement: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "polytran",
				Name:      "consensus_agreement",
				Help:      "Mean pairwise model agreement per multi-candidate request",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		memHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "polytran",
				Name:      "memory_hits_total",
				Help:      "Translation-memory cache hits",
			},
		),
	}

	registry.MustRegister(
		m.requests,
		m.latency,
		m.healthGau,
		m.tokens,
		m.agreement,
		m.memHits,
	)

	return m
}

// RecordCall records one provider call outcome and its latency.
func (m *Metrics) RecordCall(providerID, outcome string, latency time.Duration) {
	m.requests.WithLabelValues(providerID, outcome).Inc()
	m.latency.WithLabelValues(providerID).Observe(latency.Seconds())
}

// RecordTokens adds consumed tokens for a provider.
func (m *Metrics) RecordTokens(providerID string, tokens int) {
	m.tokens.WithLabelValues(providerID).Add(float64(tokens))
}

// UpdateHealth reflects a provider's health state into the gauge.
func (m *Metrics) UpdateHealth(providerID string, status health.Status) {
	var v float64
	switch status {
	case health.StatusAvailable:
		v = 2
	case health.StatusRateLimited:
		v = 1
	}
	m.healthGau.WithLabelValues(providerID).Set(v)
}

// RecordAgreement observes the agreement score of a multi-candidate request.
func (m *Metrics) RecordAgreement(agreement float64) {
	m.agreement.Observe(agreement)
}

// RecordMemoryHit counts a translation-memory cache hit.
func (m *Metrics) RecordMemoryHit() {
	m.memHits.Inc()
}

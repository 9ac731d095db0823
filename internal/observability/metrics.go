package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider call outcomes
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeSkipped     = "skipped"
	OutcomeBreakerOpen = "breaker_open"
)

// Metrics holds the process's prometheus collectors. All methods are nil-safe so
// components can run without metrics in tests.
type Metrics struct {
	registry         *prometheus.Registry
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerListings *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	stageFailures    *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumex",
			Subsystem: "jobs",
			Name:      "provider_requests_total",
			Help:      "Job provider searches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resumex",
			Subsystem: "jobs",
			Name:      "provider_latency_seconds",
			Help:      "Job provider search latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		providerListings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumex",
			Subsystem: "jobs",
			Name:      "provider_listings_total",
			Help:      "Listings returned by each job provider.",
		}, []string{"provider"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resumex",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration by stage and outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage", "outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumex",
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Pipeline runs stopped at each stage.",
		}, []string{"stage"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "resumex",
			Subsystem: "jobs",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per provider: 0 closed, 1 half-open, 2 open.",
		}, []string{"provider"}),
	}

	m.registry.MustRegister(
		m.providerRequests,
		m.providerLatency,
		m.providerListings,
		m.stageDuration,
		m.stageFailures,
		m.breakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProvider records one provider search.
func (m *Metrics) ObserveProvider(provider, outcome string, elapsed time.Duration, listings int) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeSkipped && outcome != OutcomeBreakerOpen {
		m.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
	if listings > 0 {
		m.providerListings.WithLabelValues(provider).Add(float64(listings))
	}
}

// SetBreakerState records a provider's circuit breaker state.
func (m *Metrics) SetBreakerState(provider string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(provider).Set(float64(state))
}

// ObserveStage records one pipeline stage execution.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		m.stageFailures.WithLabelValues(stage).Inc()
	}
	m.stageDuration.WithLabelValues(stage, outcome).Observe(elapsed.Seconds())
}

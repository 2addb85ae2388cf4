package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_dashboard"

// Metrics holds the Prometheus collectors for upstream calls, normals builds and the cache.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec   // labels: provider, endpoint, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: provider, endpoint
	NormalsBuilds    *prometheus.CounterVec   // labels: source, outcome={success,unavailable,error}
	CacheLookups     *prometheus.CounterVec   // labels: kind={city,normals}, result={hit,miss}
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by provider, endpoint and outcome.",
		}, []string{"provider", "endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "endpoint"}),
		NormalsBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normals_builds_total",
			Help:      "Climate normals builds by source and outcome.",
		}, []string{"source", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
	}

	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.NormalsBuilds,
		m.CacheLookups,
	)

	return m
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(provider, endpoint string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(provider, endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(provider, endpoint).Observe(elapsed.Seconds())
}

// ObserveNormals records one normals build attempt.
func (m *Metrics) ObserveNormals(source, outcome string) {
	if m == nil {
		return
	}
	m.NormalsBuilds.WithLabelValues(source, outcome).Inc()
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

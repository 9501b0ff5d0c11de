// Package metrics exposes the service's Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names.
const (
	MetricUpstreamRequestsTotal   = "bookfinder_upstream_requests_total"
	MetricUpstreamDurationSeconds = "bookfinder_upstream_request_duration_seconds"
	MetricRecentCacheLookupsTotal = "bookfinder_recent_cache_lookups_total"
	MetricHTTPRequestsTotal       = "bookfinder_http_requests_total"
	MetricActiveSessions          = "bookfinder_active_sessions"
)

// Upstream outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeRetry   = "retry"
)

// Registry holds all collectors. A nil *Registry is valid and records nothing,
// which keeps call sites free of nil checks in tests and in the CLI.
type Registry struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// New creates a registry with every collector registered.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricUpstreamRequestsTotal,
			Help: "Requests issued against upstream APIs by service, operation and outcome.",
		}, []string{"service", "operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricUpstreamDurationSeconds,
			Help:    "Upstream request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRecentCacheLookupsTotal,
			Help: "Recent-activity cache lookups by result (hit, miss).",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests served by method and status code.",
		}, []string{"method", "status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveSessions,
			Help: "Browsing sessions currently held in memory.",
		}),
	}
	r.registry.MustRegister(
		r.upstreamRequests,
		r.upstreamDuration,
		r.cacheLookups,
		r.httpRequests,
		r.activeSessions,
	)
	return r
}

// ObserveUpstream records one upstream attempt.
func (r *Registry) ObserveUpstream(service, operation, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.upstreamRequests.WithLabelValues(service, operation, outcome).Inc()
	r.upstreamDuration.WithLabelValues(service, operation).Observe(d.Seconds())
}

// ObserveCache records a cache hit or miss.
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveHTTP records a served request.
func (r *Registry) ObserveHTTP(method string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// SetActiveSessions reports the session registry size.
func (r *Registry) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.activeSessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

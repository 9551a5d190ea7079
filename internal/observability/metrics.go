package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	dueComputed  *prometheus.CounterVec
	unreachable  *prometheus.CounterVec
	breaches     *prometheus.CounterVec
	monitorRuns  *prometheus.CounterVec
	monitorTime  prometheus.Histogram
	cacheLookups *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP errors by route, method and error code",
		}, []string{"path", "method", "code"}),
		dueComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_due_computations_total",
			Help:      "Due-time computations by entity type",
		}, []string{"entity"}),
		unreachable: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_unreachable_deadlines_total",
			Help:      "Computations that produced no resolution deadline",
		}, []string{"entity"}),
		breaches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_breaches_total",
			Help:      "Newly recorded SLA violations",
		}, []string{"entity", "milestone"}),
		monitorRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_monitor_runs_total",
			Help:      "Breach monitor sweeps by outcome",
		}, []string{"outcome"}),
		monitorTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sla_monitor_duration_seconds",
			Help:      "Breach monitor sweep duration",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_config_cache_lookups_total",
			Help:      "SLA configuration cache lookups by result",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordDueComputed counts a due-time computation; reachable is false when no
// resolution deadline could be derived.
func (m *Metrics) RecordDueComputed(entity string, reachable bool) {
	if m == nil {
		return
	}
	m.dueComputed.WithLabelValues(entity).Inc()
	if !reachable {
		m.unreachable.WithLabelValues(entity).Inc()
	}
}

// RecordBreach counts a newly recorded violation.
func (m *Metrics) RecordBreach(entity, milestone string) {
	if m == nil {
		return
	}
	m.breaches.WithLabelValues(entity, milestone).Inc()
}

// RecordMonitorRun counts a sweep and its duration.
func (m *Metrics) RecordMonitorRun(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.monitorRuns.WithLabelValues(outcome).Inc()
	m.monitorTime.Observe(duration.Seconds())
}

// RecordCacheLookup counts a configuration cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors on their own registry so the
// exposition endpoint carries only what this service emits.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	cacheEntries  prometheus.Gauge
}

// NewMetrics creates the collector set on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "analytics",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "analytics",
			Name:      "metric_query_duration_seconds",
			Help:      "Store query latency by metric",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"metric"}),
		queryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "metric_query_errors_total",
			Help:      "Failed metric computations by error category",
		}, []string{"metric", "category"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "cache_hits_total",
			Help:      "Metric results served from cache",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "cache_misses_total",
			Help:      "Metric requests that missed the cache",
		}),
		cacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "analytics",
			Name:      "cache_entries",
			Help:      "Live cache entries",
		}),
	}
}

// Registry exposes the registry for the exposition handler
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveQuery(metric string, d time.Duration) {
	m.queryDuration.WithLabelValues(metric).Observe(d.Seconds())
}

func (m *Metrics) QueryError(metric, category string) {
	m.queryErrors.WithLabelValues(metric, category).Inc()
}

func (m *Metrics) CacheHit()  { m.cacheHits.Inc() }
func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

func (m *Metrics) SetCacheEntries(n int) { m.cacheEntries.Set(float64(n)) }

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Decision metrics
	DecisionsTotal *prometheus.CounterVec

	// Catalog metrics
	CatalogOperationsTotal   *prometheus.CounterVec
	CatalogOperationDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizauthz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"result", "reason"},
		),

		CatalogOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizauthz_catalog_operations_total",
				Help: "Total number of permission catalog operations",
			},
			[]string{"operation", "status"},
		),
		CatalogOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bizauthz_catalog_operation_duration_seconds",
				Help:    "Permission catalog operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizauthz_cache_hits_total",
				Help: "Total number of catalog cache hits",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizauthz_cache_misses_total",
				Help: "Total number of catalog cache misses",
			},
			[]string{"tier"},
		),
	}

	registry.MustRegister(
		m.DecisionsTotal,
		m.CatalogOperationsTotal,
		m.CatalogOperationDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// RecordDecision counts one authorization decision. Safe on a nil receiver.
func (m *Metrics) RecordDecision(granted bool, reason string) {
	if m == nil {
		return
	}
	result := "denied"
	if granted {
		result = "granted"
	}
	m.DecisionsTotal.WithLabelValues(result, reason).Inc()
}

// RecordCatalogOperation counts one catalog operation and observes its
// duration. Safe on a nil receiver.
func (m *Metrics) RecordCatalogOperation(operation, status string, started time.Time) {
	if m == nil {
		return
	}
	m.CatalogOperationsTotal.WithLabelValues(operation, status).Inc()
	m.CatalogOperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordCacheHit counts a hit on the given cache tier. Safe on a nil receiver.
func (m *Metrics) RecordCacheHit(tier string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(tier).Inc()
}

// RecordCacheMiss counts a miss on the given cache tier. Safe on a nil receiver.
func (m *Metrics) RecordCacheMiss(tier string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(tier).Inc()
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

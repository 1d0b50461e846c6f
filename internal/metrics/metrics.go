package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal *prometheus.CounterVec

	// Provider Metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// Cache Metrics
	CacheLookupsTotal *prometheus.CounterVec

	// Shaping Metrics
	ShapeDuration          prometheus.Histogram
	TimezoneFallbacksTotal prometheus.Counter

	// Session Metrics
	ActiveSessions prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewCollector creates a new metrics collector registered on reg.
func NewCollector(namespace string, reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of weather provider calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Weather provider call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider"},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"}, // "hit", "miss"
		),

		ShapeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "shape_duration_seconds",
				Help:      "Duration of shaping a provider response in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
		),

		TimezoneFallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timezone_fallbacks_total",
				Help:      "Number of shaped series that fell back to UTC",
			},
		),

		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of live dashboard sessions",
			},
		),

		gatherer: reg,
	}
}

// Handler exposes the collected metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(route, method, status string) {
	c.APIRequestsTotal.WithLabelValues(route, method, status).Inc()
}

// ObserveFetch records one provider call.
func (c *Collector) ObserveFetch(provider string, err error, took time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	c.ProviderRequestDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// ObserveCacheLookup records a cache hit or miss.
func (c *Collector) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveShape records shaping time and whether the timezone fell back to UTC.
func (c *Collector) ObserveShape(took time.Duration, timezoneFallback bool) {
	c.ShapeDuration.Observe(took.Seconds())
	if timezoneFallback {
		c.TimezoneFallbacksTotal.Inc()
	}
}

// SetActiveSessions updates the live session gauge.
func (c *Collector) SetActiveSessions(n int) {
	c.ActiveSessions.Set(float64(n))
}

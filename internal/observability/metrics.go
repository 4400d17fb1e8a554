package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream provider call rate by stage (geocoding, day_summary) and outcome.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream provider latency per call. Watch for: p95 > 2s (upstream degradation).
	UpstreamCallDuration *prometheus.HistogramVec

	// Cache hits and misses per lookup. Hit rate = hits/(hits+misses).
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Cache backend failures by operation (get, set). Reads failing open count here.
	CacheErrorsTotal *prometheus.CounterVec

	// SVG renders and their latency. Includes alternate-size re-renders of cached forecasts.
	SVGRendersTotal   prometheus.Counter
	SVGRenderDuration prometheus.Histogram

	// Scheduled refresh batches and per-zip failures within them.
	ScheduledRefreshTotal       prometheus.Counter
	ScheduledRefreshErrorsTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of provider API calls by stage",
		},
		[]string{"stage", "status"},
	)
	UpstreamCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamCallDurationSeconds",
			Help:    "Provider API latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of forecast cache hits",
		},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Total number of forecast cache misses (including reads failed open)",
		},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Total number of cache backend failures",
		},
		[]string{"operation"},
	)
	SVGRendersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "svgRendersTotal",
			Help: "Total number of forecast SVG renders",
		},
	)
	SVGRenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "svgRenderDurationSeconds",
			Help:    "Forecast SVG render latency in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05},
		},
	)
	ScheduledRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduledRefreshTotal",
			Help: "Total number of scheduled refresh batches",
		},
	)
	ScheduledRefreshErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduledRefreshErrorsTotal",
			Help: "Total number of postal codes that failed within scheduled refresh batches",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamCallDuration,
		CacheHitsTotal, CacheMissesTotal, CacheErrorsTotal,
		SVGRendersTotal, SVGRenderDuration,
		ScheduledRefreshTotal, ScheduledRefreshErrorsTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus metrics for compositing runs,
// the pixel cache and the HTTP API.
//
// Usage:
//
//	metrics.RecordBatch("api", summary)
//	metrics.RecordCacheHit()
//	metrics.RecordHTTPRequest("/api/composite/evaluate", 200, elapsed)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wonny/gem/backend/internal/composite"
)

var (
	// PixelsEvaluatedTotal counts evaluated pixels by source and outcome
	PixelsEvaluatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gem_pixels_evaluated_total",
			Help: "Total number of pixels evaluated",
		},
		[]string{"source", "outcome"},
	)

	// EmptySlotsTotal counts intervals left without a usable observation
	EmptySlotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gem_empty_slots_total",
			Help: "Total number of composite intervals without a usable observation",
		},
		[]string{"source"},
	)

	// BatchDuration tracks batch evaluation latency
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gem_batch_duration_seconds",
			Help:    "Duration of batch evaluations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"source"},
	)

	// CacheRequestsTotal counts pixel cache lookups by result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gem_pixel_cache_requests_total",
			Help: "Total number of pixel cache lookups",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts API requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gem_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	// HTTPRequestDuration tracks API latency by route
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gem_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// RetentionDeletedTotal counts audit runs removed by the retention job
	RetentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gem_audit_runs_deleted_total",
			Help: "Total number of audit run records deleted by retention",
		},
	)
)

// RecordBatch records the outcome of one batch
func RecordBatch(source string, s *composite.Summary) {
	PixelsEvaluatedTotal.WithLabelValues(source, "ok").Add(float64(s.Pixels - s.Failed))
	PixelsEvaluatedTotal.WithLabelValues(source, "failed").Add(float64(s.Failed))
	EmptySlotsTotal.WithLabelValues(source).Add(float64(s.EmptySlots))
	BatchDuration.WithLabelValues(source).Observe(s.Duration.Seconds())
}

// RecordCacheHit records a pixel served from cache
func RecordCacheHit() {
	CacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a pixel that had to be evaluated
func RecordCacheMiss() {
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}

// RecordHTTPRequest records one API request
func RecordHTTPRequest(route string, code int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordRetention records deleted audit runs
func RecordRetention(deleted int64) {
	RetentionDeletedTotal.Add(float64(deleted))
}

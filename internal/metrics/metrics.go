// Package metrics exposes Prometheus instrumentation for media ingestion.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediabundle"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	metadataFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_fetch_total",
			Help:      "Total number of provider metadata fetches",
		},
		[]string{"provider", "status"},
	)

	metadataFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "metadata_fetch_duration_seconds",
			Help:      "Duration of provider metadata fetches in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	thumbnailJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_jobs_total",
			Help:      "Total number of thumbnail generation jobs",
		},
		[]string{"status"},
	)

	thumbnailJobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "thumbnail_job_duration_seconds",
			Help:      "Duration of thumbnail generation jobs in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	thumbnailQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thumbnail_queue_depth",
			Help:      "Number of thumbnail jobs waiting for a worker",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(
		metadataFetchTotal,
		metadataFetchDuration,
		thumbnailJobsTotal,
		thumbnailJobDuration,
		thumbnailQueueDepth,
		httpRequestsTotal,
		httpRequestDuration,
		rateLimitedTotal,
	)
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// RecordMetadataFetch records a provider metadata lookup.
func RecordMetadataFetch(provider string, duration time.Duration, err error) {
	metadataFetchTotal.WithLabelValues(provider, status(err)).Inc()
	metadataFetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordThumbnailJob records a finished thumbnail job.
func RecordThumbnailJob(duration time.Duration, err error) {
	thumbnailJobsTotal.WithLabelValues(status(err)).Inc()
	thumbnailJobDuration.Observe(duration.Seconds())
}

// SetQueueDepth reports the number of queued thumbnail jobs.
func SetQueueDepth(depth int) {
	thumbnailQueueDepth.Set(float64(depth))
}

// RecordHTTPRequest records a served request. route is the matched mux pattern.
func RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected by the limiter guarding scope.
func RecordRateLimited(scope string) {
	rateLimitedTotal.WithLabelValues(scope).Inc()
}

// Handler serves the metrics registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

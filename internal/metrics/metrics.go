// Package metrics exposes Prometheus instrumentation for the job pipeline and
// the stream server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsbot_jobs_total",
			Help: "Jobs reaching each lifecycle status",
		},
		[]string{"status"},
	)

	JobsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hlsbot_jobs_pending",
			Help: "Jobs waiting for the transcoder",
		},
	)

	JobActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hlsbot_job_active",
			Help: "1 while a transcode is running",
		},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hlsbot_job_duration_seconds",
			Help:    "Wall time from dispatch to terminal status",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 2400, 3600},
		},
		[]string{"status"},
	)

	JobFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsbot_job_failures_total",
			Help: "Failed jobs by failure kind",
		},
		[]string{"kind"},
	)

	StoreWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hlsbot_store_write_failures_total",
			Help: "Completion records that could not be saved",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsbot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hlsbot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hlsbot_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the silence cutting service.
type Metrics struct {
	// Job lifecycle metrics
	JobsStarted   prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	ActiveJobs    prometheus.Gauge

	// Processing metrics
	JobDuration    prometheus.Histogram
	SilenceRemoved prometheus.Histogram
	SegmentsKept   prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Job lifecycle metrics
		JobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "silencecut_jobs_started_total",
			Help: "Total number of processing jobs started",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "silencecut_jobs_completed_total",
			Help: "Total number of processing jobs completed successfully",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "silencecut_jobs_failed_total",
			Help: "Total number of processing jobs that failed",
		}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "silencecut_active_jobs",
			Help: "Current number of jobs being processed",
		}),

		// Processing metrics
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "silencecut_job_duration_seconds",
			Help:    "Wall time spent processing a job",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),
		SilenceRemoved: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "silencecut_silence_removed_seconds",
			Help:    "Seconds of silence removed per job",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17 minutes
		}),
		SegmentsKept: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "silencecut_segments_per_job",
			Help:    "Number of segments kept per job",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "silencecut_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "silencecut_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordJobStarted increments the started counter and the active gauge
func (m *Metrics) RecordJobStarted() {
	m.JobsStarted.Inc()
	m.ActiveJobs.Inc()
}

// RecordJobCompleted records a successful job with its processing stats
func (m *Metrics) RecordJobCompleted(durationSeconds, silenceRemovedSeconds float64, segments int) {
	m.JobsCompleted.Inc()
	m.ActiveJobs.Dec()
	m.JobDuration.Observe(durationSeconds)
	m.SilenceRemoved.Observe(silenceRemovedSeconds)
	m.SegmentsKept.Observe(float64(segments))
}

// RecordJobFailed records a failed job and its wall time
func (m *Metrics) RecordJobFailed(durationSeconds float64) {
	m.JobsFailed.Inc()
	m.ActiveJobs.Dec()
	m.JobDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

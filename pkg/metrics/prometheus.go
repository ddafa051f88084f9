// Package metrics provides Prometheus metrics for the diagnostic intake service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Submission pipeline
	submissions       *prometheus.CounterVec
	submissionErrors  *prometheus.CounterVec
	stepFailures      *prometheus.CounterVec
	pipelineLatency   prometheus.Histogram
	regionFallbacks   prometheus.Counter
	verdictMismatches prometheus.Counter

	// Outbound dependencies
	crmRequests       *prometheus.CounterVec
	crmRequestLatency *prometheus.HistogramVec
	emails            *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors register on prometheus.DefaultRegisterer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "diagnostico",
		subsystem:        "intake",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "submissions_total",
		Help: "Completed submissions by scoring branch",
	}, []string{"branch"})

	m.submissionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "submission_errors_total",
		Help: "Submissions that did not complete, by reason",
	}, []string{"reason"})

	m.stepFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "step_failures_total",
		Help: "Best-effort pipeline steps that failed and were skipped",
	}, []string{"step"})

	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "pipeline_duration_milliseconds",
		Help:    "End-to-end submission pipeline duration",
		Buckets: m.histogramBuckets,
	})

	m.regionFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "region_fallbacks_total",
		Help: "Country labels that were not recognized and fell back to the default region",
	})

	m.verdictMismatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "verdict_mismatches_total",
		Help: "Submissions whose client verdict disagreed with the server evaluation",
	})

	m.crmRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "crm", ConstLabels: m.constLabels,
		Name: "requests_total",
		Help: "CRM API calls by operation and outcome",
	}, []string{"operation", "outcome"})

	m.crmRequestLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "crm", ConstLabels: m.constLabels,
		Name:    "request_duration_milliseconds",
		Help:    "CRM API call latency",
		Buckets: m.histogramBuckets,
	}, []string{"operation"})

	m.emails = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "email", ConstLabels: m.constLabels,
		Name: "confirmations_total",
		Help: "Confirmation emails by outcome (sent, failed, disabled)",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "requests_total",
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name:    "request_duration_milliseconds",
		Help:    "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "errors_by_type_total",
		Help: "HTTP errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "errors_by_endpoint_total",
		Help: "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: m.constLabels,
		Name: "memory_usage_bytes",
		Help: "Allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: m.constLabels,
		Name: "goroutine_count",
		Help: "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: m.constLabels,
		Name:    "gc_pause_time_milliseconds",
		Help:    "Average GC pause time",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
}

// Submission pipeline.

// RecordSubmission counts a completed submission by scoring branch.
func RecordSubmission(branch string) {
	globalManager.submissions.WithLabelValues(branch).Inc()
}

// RecordSubmissionError counts a submission that failed with reason.
func RecordSubmissionError(reason string) {
	globalManager.submissionErrors.WithLabelValues(reason).Inc()
}

// RecordStepFailure counts a skipped best-effort step.
func RecordStepFailure(step string) {
	globalManager.stepFailures.WithLabelValues(step).Inc()
}

// RecordPipelineLatency observes the pipeline duration in milliseconds.
func RecordPipelineLatency(latencyMs float64) {
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordRegionFallback counts an unrecognized country label.
func RecordRegionFallback() {
	globalManager.regionFallbacks.Inc()
}

// RecordVerdictMismatch counts a client/server verdict disagreement.
func RecordVerdictMismatch() {
	globalManager.verdictMismatches.Inc()
}

// Outbound dependencies.

// RecordCRMRequest counts a CRM call and observes its latency.
func RecordCRMRequest(operation, outcome string, latencyMs float64) {
	globalManager.crmRequests.WithLabelValues(operation, outcome).Inc()
	globalManager.crmRequestLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordEmail counts a confirmation email outcome.
func RecordEmail(outcome string) {
	globalManager.emails.WithLabelValues(outcome).Inc()
}

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

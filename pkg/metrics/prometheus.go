// Package metrics provides Prometheus metrics for the NBAI analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the analytics service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	constLabels    map[string]string
	namePrefix     string
	registry       prometheus.Registerer

	// Pipeline Metrics - cleaning and feature stages
	stageDuration *prometheus.HistogramVec
	rowsIngested  *prometheus.CounterVec
	rowsDropped   *prometheus.CounterVec
	snapshotRows  *prometheus.GaugeVec

	// Training Metrics - win predictor and league regressor
	trainingRuns       *prometheus.CounterVec
	trainingDuration   *prometheus.HistogramVec
	cvEvaluations      prometheus.Counter
	cvEvaluationErrors prometheus.Counter
	modelAccuracy      *prometheus.GaugeVec

	// Analysis Metrics - per-request computations
	analysisRequests *prometheus.CounterVec
	analysisLatency  *prometheus.HistogramVec
	memoLookups      *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics - training job queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker Metrics - training job workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "nbai",
		subsystem:      "analytics",
		latencyBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		enabled:        true,
		constLabels:    map[string]string{},
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the optional metric prefix.
func (m *Manager) name(base string) string {
	if m.namePrefix == "" {
		return base
	}
	return m.namePrefix + "_" + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stage_duration_milliseconds"),
		Help:        "Duration of pipeline stages (cleaning, features, matchups) in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"stage"})

	m.rowsIngested = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_ingested_total"),
		Help:        "Raw CSV rows read per stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_dropped_total"),
		Help:        "Rows dropped per stage and reason (duplicate, no_minutes, no_history)",
		ConstLabels: labels,
	}, []string{"stage", "reason"})

	m.snapshotRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("snapshot_rows"),
		Help:        "Rows held by each persisted snapshot",
		ConstLabels: labels,
	}, []string{"snapshot"})

	m.trainingRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_runs_total"),
		Help:        "Model training runs by model and outcome",
		ConstLabels: labels,
	}, []string{"model", "outcome"})

	m.trainingDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_duration_milliseconds"),
		Help:        "Model training duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"model"})

	m.cvEvaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cv_evaluations_total"),
		Help:        "Cross-validation fold evaluations completed by the grid search",
		ConstLabels: labels,
	})

	m.cvEvaluationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cv_evaluation_errors_total"),
		Help:        "Cross-validation fold evaluations that failed",
		ConstLabels: labels,
	})

	m.modelAccuracy = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_accuracy_ratio"),
		Help:        "Accuracy of the most recently trained or loaded model",
		ConstLabels: labels,
	}, []string{"model", "split"})

	m.analysisRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("analysis_requests_total"),
		Help:        "Analysis requests by kind and outcome",
		ConstLabels: labels,
	}, []string{"kind", "outcome"})

	m.analysisLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("analysis_latency_milliseconds"),
		Help:        "Analysis latency in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"kind"})

	m.memoLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("memo_lookups_total"),
		Help:        "Memoized computation lookups by entry and result (hit, miss)",
		ConstLabels: labels,
	}, []string{"entry", "result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_size"),
		Help:        "Current number of queued training jobs",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_capacity"),
		Help:        "Maximum training job queue capacity",
		ConstLabels: labels,
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_utilization_ratio"),
		Help:        "Queue utilization ratio (current size / capacity)",
		ConstLabels: labels,
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_total"),
		Help:        "Total number of training jobs enqueued",
		ConstLabels: labels,
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_dequeue_total"),
		Help:        "Total number of training jobs dequeued",
		ConstLabels: labels,
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Total number of rejected enqueues",
		ConstLabels: labels,
	})

	m.queueProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_processing_latency_milliseconds"),
		Help:        "Enqueue latency in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Number of running training workers",
		ConstLabels: labels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_milliseconds"),
		Help:        "Time a worker spends on one training job in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Total number of failed training jobs",
		ConstLabels: labels,
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Total number of errors by component",
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_type_total"),
		Help:        "Total number of errors by type",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Total number of errors by endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("error_latency_milliseconds"),
		Help:        "Latency of operations that resulted in errors",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "Heap memory in use in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Pipeline Metrics Functions.

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.stageDuration.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

// RecordRowsIngested adds n raw rows read by stage.
func RecordRowsIngested(stage string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rowsIngested.WithLabelValues(stage).Add(float64(n))
}

// RecordRowsDropped adds n rows dropped by stage for reason.
func RecordRowsDropped(stage, reason string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(stage, reason).Add(float64(n))
}

// UpdateSnapshotRows sets the row count of a persisted snapshot.
func UpdateSnapshotRows(snapshot string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotRows.WithLabelValues(snapshot).Set(float64(n))
}

// Training Metrics Functions.

// RecordTrainingRun records a training run outcome ("ok", "error").
func RecordTrainingRun(model, outcome string, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.trainingRuns.WithLabelValues(model, outcome).Inc()
	globalManager.trainingDuration.WithLabelValues(model).Observe(float64(d.Milliseconds()))
}

// RecordCVEvaluation increments the completed fold evaluation counter.
func RecordCVEvaluation() {
	if !globalManager.enabled {
		return
	}
	globalManager.cvEvaluations.Inc()
}

// RecordCVEvaluationError increments the failed fold evaluation counter.
func RecordCVEvaluationError() {
	if !globalManager.enabled {
		return
	}
	globalManager.cvEvaluationErrors.Inc()
}

// UpdateModelAccuracy sets the accuracy of model on split ("cv", "test").
func UpdateModelAccuracy(model, split string, accuracy float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.modelAccuracy.WithLabelValues(model, split).Set(accuracy)
}

// Analysis Metrics Functions.

// RecordAnalysis records an analysis request outcome and latency.
func RecordAnalysis(kind, outcome string, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.analysisRequests.WithLabelValues(kind, outcome).Inc()
	globalManager.analysisLatency.WithLabelValues(kind).Observe(float64(d.Milliseconds()))
}

// RecordMemoHit records a memoized value served without recomputation.
func RecordMemoHit(entry string) {
	if !globalManager.enabled {
		return
	}
	globalManager.memoLookups.WithLabelValues(entry, "hit").Inc()
}

// RecordMemoMiss records a memoized value that had to be computed.
func RecordMemoMiss(entry string) {
	if !globalManager.enabled {
		return
	}
	globalManager.memoLookups.WithLabelValues(entry, "miss").Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
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

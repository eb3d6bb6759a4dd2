// Package metrics provides Prometheus metrics for the taskmatch allocation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the allocation service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Allocation Metrics - what the engine is for
	recommendationsTotal  prometheus.Counter
	recommendationLatency prometheus.Histogram
	candidatesScored      prometheus.Counter
	assignmentsTotal      *prometheus.CounterVec
	statusTransitions     *prometheus.CounterVec
	taskMutations         *prometheus.CounterVec
	idempotentReplays     prometheus.Counter

	// Inventory Metrics
	tasksByStatus *prometheus.GaugeVec
	workersTotal  prometheus.Gauge

	// Workload Cache Metrics
	workloadCacheHits          prometheus.Counter
	workloadCacheMisses        prometheus.Counter
	workloadCacheInvalidations prometheus.Counter

	// Store Metrics
	storeOperationLatency *prometheus.HistogramVec

	// Notification Queue Metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueDequeue     prometheus.Counter
	queueDropped     prometheus.Counter

	// Worker Metrics - notification delivery
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	notificationsPublished  *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "taskmatch",
		subsystem:        "allocation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// Disabled managers record into a registry nobody scrapes.
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.recommendationsTotal = m.counter("recommendations_total", "Total number of recommendation reports produced")
	m.recommendationLatency = m.histogram("recommendation_latency_milliseconds",
		"Histogram of ranking plus report latency in milliseconds", m.histogramBuckets)
	m.candidatesScored = m.counter("candidates_scored_total", "Total number of worker fitness scores computed")
	m.assignmentsTotal = m.counterVec("assignments_total", "Assignment attempts by outcome", "outcome")
	m.statusTransitions = m.counterVec("status_transitions_total", "Committed task status transitions", "from", "to")
	m.taskMutations = m.counterVec("task_mutations_total", "Task create, update and delete operations", "operation")
	m.idempotentReplays = m.counter("idempotent_replays_total", "Task creations answered from an idempotency key")

	m.tasksByStatus = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("tasks"),
		Help:        "Current number of tasks by status",
		ConstLabels: m.customLabels,
	}, []string{"status"})
	m.workersTotal = m.gauge("workers", "Current number of known workers")

	m.workloadCacheHits = m.counter("workload_cache_hits_total", "Workload lookups served from cache")
	m.workloadCacheMisses = m.counter("workload_cache_misses_total", "Workload lookups that required computation")
	m.workloadCacheInvalidations = m.counter("workload_cache_invalidations_total", "Per-worker workload invalidations")

	m.storeOperationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_operation_latency_milliseconds"),
		Help:        "Record store operation latency in milliseconds",
		Buckets:     []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	}, []string{"driver", "operation"})

	m.queueSize = m.gauge("notify_queue_size", "Current number of pending notifications")
	m.queueCapacity = m.gauge("notify_queue_capacity", "Notification queue capacity")
	m.queueUtilization = m.gauge("notify_queue_utilization_ratio", "Notification queue fill ratio")
	m.queueEnqueue = m.counter("notify_queue_enqueue_total", "Notifications enqueued")
	m.queueDequeue = m.counter("notify_queue_dequeue_total", "Notifications dequeued")
	m.queueDropped = m.counter("notify_queue_dropped_total", "Notifications dropped because the queue was full or closed")

	m.workerActiveCount = m.gauge("notify_workers_active", "Running notification workers")
	m.workerProcessingLatency = m.histogram("notify_processing_latency_milliseconds",
		"Time spent publishing one notification in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 3000})
	m.workerErrors = m.counter("notify_worker_errors_total", "Notifications that failed to publish")
	m.notificationsPublished = m.counterVec("notifications_published_total", "Published notifications by driver and result",
		"driver", "result")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRecommendation counts a produced report and its latency.
func RecordRecommendation(latencyMs float64) {
	globalManager.recommendationsTotal.Inc()
	globalManager.recommendationLatency.Observe(latencyMs)
}

// RecordCandidatesScored adds n computed fitness scores.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Add(float64(n))
}

// RecordAssignment counts an assignment attempt by outcome
// (assigned, not_found, invalid_transition, invalid_input, error).
func RecordAssignment(outcome string) {
	globalManager.assignmentsTotal.WithLabelValues(outcome).Inc()
}

// RecordStatusTransition counts a committed status change.
func RecordStatusTransition(from, to string) {
	globalManager.statusTransitions.WithLabelValues(from, to).Inc()
}

// RecordTaskMutation counts a create, update or delete.
func RecordTaskMutation(operation string) {
	globalManager.taskMutations.WithLabelValues(operation).Inc()
}

// RecordIdempotentReplay counts a creation answered from a previous result.
func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

// UpdateTasksByStatus sets the task gauge for one status.
func UpdateTasksByStatus(status string, count int) {
	globalManager.tasksByStatus.WithLabelValues(status).Set(float64(count))
}

// UpdateWorkersTotal sets the worker gauge.
func UpdateWorkersTotal(count int) {
	globalManager.workersTotal.Set(float64(count))
}

// RecordWorkloadCacheHit increments the workload cache hit counter.
func RecordWorkloadCacheHit() {
	globalManager.workloadCacheHits.Inc()
}

// RecordWorkloadCacheMiss increments the workload cache miss counter.
func RecordWorkloadCacheMiss() {
	globalManager.workloadCacheMisses.Inc()
}

// RecordWorkloadInvalidation increments the invalidation counter.
func RecordWorkloadInvalidation() {
	globalManager.workloadCacheInvalidations.Inc()
}

// RecordStoreLatency records a store operation latency.
func RecordStoreLatency(driver, operation string, latencyMs float64) {
	globalManager.storeOperationLatency.WithLabelValues(driver, operation).Observe(latencyMs)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueDropped increments the dropped notification counter.
func RecordQueueDropped() {
	globalManager.queueDropped.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of running notification workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the time to publish one notification.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordNotificationPublished counts a publish attempt for a driver.
func RecordNotificationPublished(driver, result string) {
	globalManager.notificationsPublished.WithLabelValues(driver, result).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
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

// System Performance Metrics Functions.

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

// Configure rebuilds the global manager with opts on a fresh registry, which
// GetRegistry then returns. Call it once at startup, before any metric is
// recorded or the registry is served.
func Configure(opts ...Option) *Manager {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
	return globalManager
}

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

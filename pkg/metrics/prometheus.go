// Package metrics provides Prometheus metrics for the tagboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Runs
	runsTotal      prometheus.Counter
	runFailures    *prometheus.CounterVec
	runDuration    prometheus.Histogram
	eventsLoaded   prometheus.Gauge
	eventsDropped  *prometheus.CounterVec
	transitions    prometheus.Counter
	bonusesAwarded prometheus.Counter
	players        prometheus.Gauge

	// Live accrual
	ticksTotal     prometheus.Counter
	ticksDropped   prometheus.Counter
	accruedSeconds prometheus.Counter

	// Command queue and writer
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueue  prometheus.Counter
	queueDequeue  prometheus.Counter
	queueErrors   prometheus.Counter
	taskLatency   *prometheus.HistogramVec
	taskErrors    *prometheus.CounterVec

	// Snapshots and live clients
	snapshotsPublished prometheus.Counter
	snapshotLastUnix   prometheus.Gauge
	liveClients        prometheus.Gauge
	liveMessages       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tagboard",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.runsTotal = m.counter("runs_total", "Completed scoring runs")
	m.runFailures = m.counterVec("run_failures_total", "Abandoned scoring runs by stage", "stage")
	m.runDuration = m.histogram("run_duration_milliseconds", "Time to fold a whole log")
	m.eventsLoaded = m.gauge("events_loaded", "Tag events in the current run")
	m.eventsDropped = m.counterVec("events_dropped_total", "Tag events dropped before scoring", "reason")
	m.transitions = m.counter("transitions_total", "Folded tag transitions")
	m.bonusesAwarded = m.counter("isolation_bonuses_total", "Isolation bonuses granted")
	m.players = m.gauge("players", "Players on the roster")

	m.ticksTotal = m.counter("ticks_total", "Live accrual ticks applied")
	m.ticksDropped = m.counter("ticks_dropped_total", "Live accrual ticks dropped on a full queue")
	m.accruedSeconds = m.counter("accrued_seconds_total", "Holding time credited by live accrual")

	m.queueSize = m.gauge("queue_size", "Pending writer tasks")
	m.queueCapacity = m.gauge("queue_capacity", "Writer task queue capacity")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Tasks enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Tasks dequeued")
	m.queueErrors = m.counter("queue_enqueue_errors_total", "Tasks rejected by the queue")
	m.taskLatency = m.histogramVec("task_latency_milliseconds", "Writer task processing time", "kind")
	m.taskErrors = m.counterVec("task_errors_total", "Writer task failures", "kind")

	m.snapshotsPublished = m.counter("snapshots_published_total", "Leaderboard snapshots published")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix time of the last published snapshot")
	m.liveClients = m.gauge("live_clients", "Connected websocket clients")
	m.liveMessages = m.counter("live_messages_total", "Snapshots pushed to websocket clients")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRun marks a completed run and its duration.
func RecordRun(durationMs float64) {
	globalManager.runsTotal.Inc()
	globalManager.runDuration.Observe(durationMs)
}

// RecordRunFailure counts an abandoned run at stage (fetch, parse, queue).
func RecordRunFailure(stage string) {
	globalManager.runFailures.WithLabelValues(stage).Inc()
}

// UpdateEventsLoaded sets the size of the current log.
func UpdateEventsLoaded(n int) {
	globalManager.eventsLoaded.Set(float64(n))
}

// RecordEventsDropped counts n events dropped for reason (parse, roster, duplicate).
func RecordEventsDropped(reason string, n int) {
	if n > 0 {
		globalManager.eventsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordTransitions counts folded transitions.
func RecordTransitions(n int) {
	if n > 0 {
		globalManager.transitions.Add(float64(n))
	}
}

// RecordBonuses counts granted isolation bonuses.
func RecordBonuses(n int) {
	if n > 0 {
		globalManager.bonusesAwarded.Add(float64(n))
	}
}

// UpdatePlayers sets the roster size.
func UpdatePlayers(n int) {
	globalManager.players.Set(float64(n))
}

// RecordTick counts one applied tick and the seconds it credited.
func RecordTick(accruedSeconds float64) {
	globalManager.ticksTotal.Inc()
	if accruedSeconds > 0 {
		globalManager.accruedSeconds.Add(accruedSeconds)
	}
}

// RecordTickDropped counts a tick that could not be queued.
func RecordTickDropped() {
	globalManager.ticksDropped.Inc()
}

// UpdateQueueSize sets the number of pending tasks.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueErrors.Inc()
}

// RecordTaskLatency observes how long the writer spent on a task.
func RecordTaskLatency(kind string, latencyMs float64) {
	globalManager.taskLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordTaskError counts a failed writer task.
func RecordTaskError(kind string) {
	globalManager.taskErrors.WithLabelValues(kind).Inc()
}

// RecordSnapshotPublished marks a snapshot publish at unix seconds.
func RecordSnapshotPublished(unix int64) {
	globalManager.snapshotsPublished.Inc()
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// UpdateLiveClients sets the number of websocket clients.
func UpdateLiveClients(n int) {
	globalManager.liveClients.Set(float64(n))
}

// RecordLiveMessage counts one pushed snapshot.
func RecordLiveMessage() {
	globalManager.liveMessages.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry holding the service metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

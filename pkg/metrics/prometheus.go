// Package metrics provides Prometheus metrics for the swish simulation
// service.
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

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Shot metrics
	shotsReleased *prometheus.CounterVec
	shotsRejected prometheus.Counter
	baskets       *prometheus.CounterVec
	shotsMissed   prometheus.Counter
	screenShakes  prometheus.Counter

	// Frame-loop metrics
	framesTotal      prometheus.Counter
	frameDuration    prometheus.Histogram
	substepsPerFrame prometheus.Histogram

	// Session metrics
	sessionsActive  prometheus.Gauge
	sessionsStarted prometheus.Counter
	sessionsClosed  prometheus.Counter

	// Recorder metrics
	resultsRecorded  prometheus.Counter
	resultsDuplicate prometheus.Counter
	resultsDropped   prometheus.Counter
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	workerActive     prometheus.Gauge
	workerProcessed  prometheus.Counter
	workerErrors     prometheus.Counter
	workerLatency    prometheus.Histogram

	// Leaderboard metrics
	leaderboardPlayers      prometheus.Gauge
	leaderboardUpdates      prometheus.Counter
	leaderboardUpdateLat    prometheus.Histogram
	leaderboardQueryLat     prometheus.Histogram
	snapshotCount           prometheus.Counter
	snapshotLastUnix        prometheus.Gauge
	snapshotRebuildDuration prometheus.Histogram

	// Transport metrics
	wsConnections      prometheus.Gauge
	wsCommandsReceived prometheus.Counter
	wsSnapshotsSent    prometheus.Counter
	wsSendDrops        prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional singleton

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional singleton

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "swish",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric inventory
	auto := promauto.With(m.registry)

	m.shotsReleased = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "shots_released_total",
			Help:      "Total shot releases by release quality label",
		},
		[]string{"quality"},
	)

	m.shotsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shots_rejected_total",
		Help:      "Total releases rejected because no valid trajectory exists",
	})

	m.baskets = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "baskets_total",
			Help:      "Total made baskets by point value",
		},
		[]string{"points"},
	)

	m.shotsMissed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shots_missed_total",
		Help:      "Total flights that ended in a reset without scoring",
	})

	m.screenShakes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "screen_shake_requests_total",
		Help:      "Total screen-shake requests emitted on overpowered releases",
	})

	m.framesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_total",
		Help:      "Total simulation frames advanced across all sessions",
	})

	m.frameDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_duration_milliseconds",
		Help:      "Wall time spent advancing one simulation frame",
		Buckets:   m.histogramBuckets,
	})

	m.substepsPerFrame = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "physics_substeps_per_frame",
		Help:      "Fixed physics sub-steps executed per frame",
		Buckets:   []float64{0, 1, 2, 3},
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Currently running game sessions",
	})

	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Total game sessions started",
	})

	m.sessionsClosed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_closed_total",
		Help:      "Total game sessions closed",
	})

	m.resultsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_recorded_total",
		Help:      "Total shot results accepted by the recorder",
	})

	m.resultsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_duplicate_total",
		Help:      "Total shot results rejected as duplicates",
	})

	m.resultsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_dropped_total",
		Help:      "Total shot results dropped because the queue was full",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current recorder queue depth",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum recorder queue capacity",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total results enqueued to the recorder queue",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total results dequeued from the recorder queue",
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Recorder workers currently running",
	})

	m.workerProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processed_total",
		Help:      "Total results applied to the leaderboard by workers",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total worker failures while applying results",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_apply_latency_milliseconds",
		Help:      "Latency of applying one result to the leaderboard",
		Buckets:   m.histogramBuckets,
	})

	m.leaderboardPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_players",
		Help:      "Players currently ranked on the leaderboard",
	})

	m.leaderboardUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_updates_total",
		Help:      "Total leaderboard point updates",
	})

	m.leaderboardUpdateLat = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_update_latency_milliseconds",
		Help:      "Leaderboard update operation latency",
		Buckets:   m.histogramBuckets,
	})

	m.leaderboardQueryLat = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_query_latency_milliseconds",
		Help:      "Leaderboard query operation latency",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_snapshot_count_total",
		Help:      "Total leaderboard snapshots published",
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_snapshot_last_unix",
		Help:      "Unix timestamp of the last leaderboard snapshot publish",
	})

	m.snapshotRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_snapshot_rebuild_duration_milliseconds",
		Help:      "Leaderboard snapshot rebuild duration",
		Buckets:   m.histogramBuckets,
	})

	m.wsConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_connections",
		Help:      "Currently open play connections",
	})

	m.wsCommandsReceived = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_commands_received_total",
		Help:      "Total client commands received over play connections",
	})

	m.wsSnapshotsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_snapshots_sent_total",
		Help:      "Total state snapshots sent over play connections",
	})

	m.wsSendDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_send_drops_total",
		Help:      "Total outbound frames dropped for slow clients",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration by endpoint, method, and status",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordShotReleased counts a release by its quality label.
func RecordShotReleased(quality string) {
	globalManager.shotsReleased.WithLabelValues(quality).Inc()
}

// RecordShotRejected counts a release rejected by the trajectory solver.
func RecordShotRejected() {
	globalManager.shotsRejected.Inc()
}

// RecordBasket counts a made basket by point value ("2" or "3").
func RecordBasket(points string) {
	globalManager.baskets.WithLabelValues(points).Inc()
}

// RecordShotMissed counts a flight that reset without scoring.
func RecordShotMissed() {
	globalManager.shotsMissed.Inc()
}

// RecordScreenShake counts an overpowered-release shake request.
func RecordScreenShake() {
	globalManager.screenShakes.Inc()
}

// RecordFrame counts one advanced frame and its duration and sub-steps.
func RecordFrame(durationMs float64, substeps int) {
	globalManager.framesTotal.Inc()
	globalManager.frameDuration.Observe(durationMs)
	globalManager.substepsPerFrame.Observe(float64(substeps))
}

// UpdateActiveSessions sets the active session gauge.
func UpdateActiveSessions(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionStarted counts a session start.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// RecordSessionClosed counts a session close.
func RecordSessionClosed() {
	globalManager.sessionsClosed.Inc()
}

// RecordResultRecorded counts an accepted shot result.
func RecordResultRecorded() {
	globalManager.resultsRecorded.Inc()
}

// RecordResultDuplicate counts a duplicate shot result.
func RecordResultDuplicate() {
	globalManager.resultsDuplicate.Inc()
}

// RecordResultDropped counts a result dropped on a full queue.
func RecordResultDropped() {
	globalManager.resultsDropped.Inc()
}

// UpdateQueueSize sets the current recorder queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the recorder queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts one enqueued result.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue counts one dequeued result.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// UpdateWorkerActiveCount sets the running worker gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessed counts one result applied to the leaderboard.
func RecordWorkerProcessed() {
	globalManager.workerProcessed.Inc()
}

// RecordWorkerError counts a worker failure.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerLatency records the latency of applying one result.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// UpdateLeaderboardPlayers sets the ranked-player gauge.
func UpdateLeaderboardPlayers(count int) {
	globalManager.leaderboardPlayers.Set(float64(count))
}

// RecordLeaderboardUpdate counts a leaderboard point update.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// RecordLeaderboardUpdateLatency records an update latency.
func RecordLeaderboardUpdateLatency(latencyMs float64) {
	globalManager.leaderboardUpdateLat.Observe(latencyMs)
}

// RecordLeaderboardQueryLatency records a query latency.
func RecordLeaderboardQueryLatency(latencyMs float64) {
	globalManager.leaderboardQueryLat.Observe(latencyMs)
}

// RecordSnapshot records a published snapshot and its rebuild duration.
func RecordSnapshot(rebuildMs float64) {
	globalManager.snapshotCount.Inc()
	globalManager.snapshotLastUnix.Set(float64(time.Now().Unix()))
	globalManager.snapshotRebuildDuration.Observe(rebuildMs)
}

// UpdateWSConnections sets the open play-connection gauge.
func UpdateWSConnections(count int) {
	globalManager.wsConnections.Set(float64(count))
}

// RecordWSCommand counts a received client command.
func RecordWSCommand() {
	globalManager.wsCommandsReceived.Inc()
}

// RecordWSSnapshot counts a sent state snapshot.
func RecordWSSnapshot() {
	globalManager.wsSnapshotsSent.Inc()
}

// RecordWSSendDrop counts an outbound frame dropped for a slow client.
func RecordWSSendDrop() {
	globalManager.wsSendDrops.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the current heap allocation in bytes.
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

// GetRegistry returns the custom Prometheus registry backing the global
// manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

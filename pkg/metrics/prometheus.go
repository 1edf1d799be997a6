// Package metrics provides Prometheus metrics for the castassist pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingest metrics - raw messages arriving from the transport
	eventsReceived  prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsDropped   prometheus.Counter
	eventsParsed    prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount  prometheus.Gauge
	parseLatency prometheus.Histogram

	// Window metrics
	windowFlushes    prometheus.Counter
	windowBatchSize  prometheus.Histogram
	windowFlushTime  prometheus.Histogram
	windowCandidates prometheus.Counter

	// Enrichment metrics
	enrichmentHits   prometheus.Counter
	enrichmentMisses prometheus.Counter

	// Write-gate metrics. Staleness rejections are routine decisions, not
	// errors, but must be countable separately per rejection reason.
	writesAccepted prometheus.Counter
	writesStale    *prometheus.CounterVec

	// Store metrics
	storeReadErrors  prometheus.Counter
	storeWriteErrors prometheus.Counter
	storeLatency     prometheus.Histogram

	// Live match poller metrics
	pollerPolls      prometheus.Counter
	pollerErrors     prometheus.Counter
	liveMatchesCount prometheus.Gauge

	// System metrics
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
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "castassist",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric declarations are verbose by nature
	auto := promauto.With(m.registry)

	m.eventsReceived = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_received_total",
		Help:      "Total number of raw messages received from the transport",
	})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of byte-identical redeliveries suppressed before parsing",
	})

	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Total number of malformed or invalid events filtered out by the parser",
	})

	m.eventsParsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_parsed_total",
		Help:      "Total number of events that passed parsing and validation",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the raw message queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the raw message queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue utilization ratio (size / capacity)",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of failed enqueue attempts (queue full or closed)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of parse workers",
	})

	m.parseLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "parse_latency_milliseconds",
		Help:      "Histogram of per-message parse latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.windowFlushes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "window_flushes_total",
		Help:      "Total number of closed processing-time windows",
	})

	m.windowBatchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "window_batch_size",
		Help:      "Histogram of events per closed window",
		Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	m.windowFlushTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "window_flush_duration_milliseconds",
		Help:      "Histogram of end-to-end window batch processing time in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.windowCandidates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "window_candidates_total",
		Help:      "Total number of per-token candidates selected by the reducer",
	})

	m.enrichmentHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_hits_total",
		Help:      "Total number of candidates enriched with live team names",
	})

	m.enrichmentMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_misses_total",
		Help:      "Total number of candidates with no live match directory entry",
	})

	m.writesAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writes_accepted_total",
		Help:      "Total number of snapshots accepted and upserted",
	})

	m.writesStale = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "writes_stale_total",
			Help:      "Total number of candidates rejected as stale, by rejection reason",
		},
		[]string{"reason"},
	)

	m.storeReadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_read_errors_total",
		Help:      "Total number of document store read failures",
	})

	m.storeWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_errors_total",
		Help:      "Total number of document store write failures",
	})

	m.storeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Histogram of document store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.pollerPolls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "poller_polls_total",
		Help:      "Total number of live match directory refresh attempts",
	})

	m.pollerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "poller_errors_total",
		Help:      "Total number of failed live match directory refreshes",
	})

	m.liveMatchesCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "live_matches",
		Help:      "Number of matches in the last fetched live match directory",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Staleness rejection reasons used with RecordWriteStale.
const (
	StaleReasonGameTime  = "game_time"
	StaleReasonTimestamp = "timestamp"
	StaleReasonReplay    = "replay"
)

// RecordEventReceived increments the raw message counter.
func RecordEventReceived() {
	globalManager.eventsReceived.Inc()
}

// RecordEventDuplicate increments the duplicate suppression counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventDropped increments the malformed/invalid drop counter.
func RecordEventDropped() {
	globalManager.eventsDropped.Inc()
}

// RecordEventParsed increments the parsed event counter.
func RecordEventParsed() {
	globalManager.eventsParsed.Inc()
}

// UpdateQueueSize sets the current queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueueError increments the enqueue failure counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the parse worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordParseLatency observes a per-message parse latency in milliseconds.
func RecordParseLatency(latencyMs float64) {
	globalManager.parseLatency.Observe(latencyMs)
}

// RecordWindowFlush records a closed window and its batch size.
func RecordWindowFlush(batchSize int) {
	globalManager.windowFlushes.Inc()
	globalManager.windowBatchSize.Observe(float64(batchSize))
}

// RecordWindowFlushDuration observes a window batch processing time in milliseconds.
func RecordWindowFlushDuration(latencyMs float64) {
	globalManager.windowFlushTime.Observe(latencyMs)
}

// RecordWindowCandidates adds the number of reduced per-token candidates.
func RecordWindowCandidates(count int) {
	globalManager.windowCandidates.Add(float64(count))
}

// RecordEnrichmentHit increments the enrichment hit counter.
func RecordEnrichmentHit() {
	globalManager.enrichmentHits.Inc()
}

// RecordEnrichmentMiss increments the enrichment miss counter.
func RecordEnrichmentMiss() {
	globalManager.enrichmentMisses.Inc()
}

// RecordWriteAccepted increments the accepted write counter.
func RecordWriteAccepted() {
	globalManager.writesAccepted.Inc()
}

// RecordWriteStale increments the stale rejection counter for a reason.
func RecordWriteStale(reason string) {
	globalManager.writesStale.WithLabelValues(reason).Inc()
}

// RecordStoreReadError increments the store read failure counter.
func RecordStoreReadError() {
	globalManager.storeReadErrors.Inc()
}

// RecordStoreWriteError increments the store write failure counter.
func RecordStoreWriteError() {
	globalManager.storeWriteErrors.Inc()
}

// RecordStoreLatency observes a store operation latency in milliseconds.
func RecordStoreLatency(latencyMs float64) {
	globalManager.storeLatency.Observe(latencyMs)
}

// RecordPollerPoll increments the live match poll counter.
func RecordPollerPoll() {
	globalManager.pollerPolls.Inc()
}

// RecordPollerError increments the live match poll failure counter.
func RecordPollerError() {
	globalManager.pollerErrors.Inc()
}

// UpdateLiveMatchesCount sets the live match directory size gauge.
func UpdateLiveMatchesCount(count int) {
	globalManager.liveMatchesCount.Set(float64(count))
}

// UpdateSystemMemoryUsage sets the heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

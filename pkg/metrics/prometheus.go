// Package metrics provides Prometheus metrics for the draft recommendation service.
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

// Inference run outcomes used as the "outcome" label.
const (
	OutcomePublished   = "published"
	OutcomeStale       = "stale"
	OutcomeFailed      = "failed"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace       string
	subsystem       string
	metricPrefix    string
	latencyBuckets  []float64
	batchBuckets    []float64
	refreshInterval time.Duration
	customLabels    map[string]string
	registry        prometheus.Registerer

	// Inference pipeline
	inferenceRuns     *prometheus.CounterVec
	inferenceLatency  prometheus.Histogram
	encodingLatency   prometheus.Histogram
	scoringLatency    prometheus.Histogram
	batchSize         prometheus.Histogram
	candidates        prometheus.Gauge
	coordinatorState  prometheus.Gauge
	scoringErrors     *prometheus.CounterVec
	staleResults      prometheus.Counter
	mailboxOffers     prometheus.Counter
	mailboxOverwrites prometheus.Counter

	// Draft state
	draftMutations  *prometheus.CounterVec
	subscribers     prometheus.Gauge
	subscriberDrops prometheus.Counter

	// Catalog
	catalogHeroes  prometheus.Gauge
	catalogSkipped prometheus.Counter
	catalogLoads   *prometheus.CounterVec

	// Snapshot publishing
	snapshotsPublished prometheus.Counter
	publishErrors      prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "draftnexus",
		subsystem:       "recommender",
		latencyBuckets:  []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 250, 500, 1000},
		batchBuckets:    []float64{1, 5, 10, 20, 40, 60, 80, 100, 120, 140},
		refreshInterval: defaultRefreshInterval,
		customLabels:    make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.inferenceRuns = auto.NewCounterVec(m.counterOpts("inference_runs_total",
		"Inference runs by terminal outcome"), []string{"outcome"})
	m.inferenceLatency = auto.NewHistogram(m.histogramOpts("inference_latency_milliseconds",
		"End-to-end encode, score and rank latency in milliseconds", m.latencyBuckets))
	m.encodingLatency = auto.NewHistogram(m.histogramOpts("encoding_latency_milliseconds",
		"Batch feature encoding latency in milliseconds", m.latencyBuckets))
	m.scoringLatency = auto.NewHistogram(m.histogramOpts("scoring_latency_milliseconds",
		"Scoring model call latency in milliseconds", m.latencyBuckets))
	m.batchSize = auto.NewHistogram(m.histogramOpts("batch_size",
		"Candidates per scoring batch", m.batchBuckets))
	m.candidates = auto.NewGauge(m.gaugeOpts("candidates",
		"Eligible candidates in the most recent run"))
	m.coordinatorState = auto.NewGauge(m.gaugeOpts("coordinator_state",
		"Current coordinator state (0 idle, 1 encoding, 2 scoring, 3 ranking, 4 published, 5 failed)"))
	m.scoringErrors = auto.NewCounterVec(m.counterOpts("scoring_errors_total",
		"Scoring failures by kind"), []string{"kind"})
	m.staleResults = auto.NewCounter(m.counterOpts("stale_results_total",
		"Inference results discarded because a newer generation was issued"))
	m.mailboxOffers = auto.NewCounter(m.counterOpts("mailbox_offers_total",
		"Inference requests offered to the mailbox"))
	m.mailboxOverwrites = auto.NewCounter(m.counterOpts("mailbox_overwrites_total",
		"Pending inference requests replaced before they started"))

	m.draftMutations = auto.NewCounterVec(m.counterOpts("draft_mutations_total",
		"Draft state mutations by kind"), []string{"kind"})
	m.subscribers = auto.NewGauge(m.gaugeOpts("subscribers",
		"Active draft state subscribers"))
	m.subscriberDrops = auto.NewCounter(m.counterOpts("subscriber_drops_total",
		"Subscribers dropped for falling behind"))

	m.catalogHeroes = auto.NewGauge(m.gaugeOpts("catalog_heroes",
		"Heroes in the loaded catalog"))
	m.catalogSkipped = auto.NewCounter(m.counterOpts("catalog_skipped_records_total",
		"Malformed roster records skipped during load"))
	m.catalogLoads = auto.NewCounterVec(m.counterOpts("catalog_loads_total",
		"Catalog load attempts by result"), []string{"result"})

	m.snapshotsPublished = auto.NewCounter(m.counterOpts("snapshots_published_total",
		"Snapshots written to the external stream"))
	m.publishErrors = auto.NewCounter(m.counterOpts("snapshot_publish_errors_total",
		"Failures writing snapshots to the external stream"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds",
		"Latency of operations that ended in an error", m.latencyBuckets), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"Average GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))
}

// Inference pipeline.

// RecordInferenceRun increments the run counter for an outcome.
func RecordInferenceRun(outcome string) {
	globalManager.inferenceRuns.WithLabelValues(outcome).Inc()
}

// RecordInferenceLatency records end-to-end run latency.
func RecordInferenceLatency(latencyMs float64) {
	globalManager.inferenceLatency.Observe(latencyMs)
}

// RecordEncodingLatency records batch encoding latency.
func RecordEncodingLatency(latencyMs float64) {
	globalManager.encodingLatency.Observe(latencyMs)
}

// RecordScoringLatency records scoring call latency.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordBatchSize records the number of rows in a scoring batch.
func RecordBatchSize(rows int) {
	globalManager.batchSize.Observe(float64(rows))
}

// UpdateCandidates sets the eligible candidate count of the latest run.
func UpdateCandidates(count int) {
	globalManager.candidates.Set(float64(count))
}

// UpdateCoordinatorState sets the numeric coordinator state.
func UpdateCoordinatorState(state int) {
	globalManager.coordinatorState.Set(float64(state))
}

// RecordScoringError increments the scoring error counter for kind.
func RecordScoringError(kind string) {
	globalManager.scoringErrors.WithLabelValues(kind).Inc()
}

// RecordStaleResult increments the stale result counter.
func RecordStaleResult() {
	globalManager.staleResults.Inc()
}

// RecordMailboxOffer records an offered request and whether it replaced a pending one.
func RecordMailboxOffer(overwrote bool) {
	globalManager.mailboxOffers.Inc()
	if overwrote {
		globalManager.mailboxOverwrites.Inc()
	}
}

// Draft state.

// RecordDraftMutation increments the mutation counter for kind.
func RecordDraftMutation(kind string) {
	globalManager.draftMutations.WithLabelValues(kind).Inc()
}

// UpdateSubscribers sets the active subscriber count.
func UpdateSubscribers(count int) {
	globalManager.subscribers.Set(float64(count))
}

// RecordSubscriberDrop increments the dropped subscriber counter.
func RecordSubscriberDrop() {
	globalManager.subscriberDrops.Inc()
}

// Catalog.

// UpdateCatalogHeroes sets the loaded hero count.
func UpdateCatalogHeroes(count int) {
	globalManager.catalogHeroes.Set(float64(count))
}

// RecordCatalogSkipped adds skipped roster records.
func RecordCatalogSkipped(count int) {
	if count > 0 {
		globalManager.catalogSkipped.Add(float64(count))
	}
}

// RecordCatalogLoad increments the catalog load counter for result ("ok" or "error").
func RecordCatalogLoad(result string) {
	globalManager.catalogLoads.WithLabelValues(result).Inc()
}

// Snapshot publishing.

// RecordSnapshotPublished increments the published snapshot counter.
func RecordSnapshotPublished() {
	globalManager.snapshotsPublished.Inc()
}

// RecordPublishError increments the publish error counter.
func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

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

// RefreshInterval returns how often the system gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

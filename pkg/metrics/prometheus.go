// Package metrics provides Prometheus metrics for the reto scoreboard service.
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

	// Scoreboard intents
	grants             *prometheus.CounterVec
	boosts             prometheus.Counter
	corrections        *prometheus.CounterVec
	eventsEdited       prometheus.Counter
	seasonsCreated     prometheus.Counter
	participantsAdded  prometheus.Counter
	participantsSeeded prometheus.Counter
	confirmations      *prometheus.CounterVec
	idempotentReplays  prometheus.Counter

	// Store and mutation pipeline
	storeMutations       *prometheus.CounterVec
	storeMutationLatency *prometheus.HistogramVec
	queueSize            prometheus.Gauge
	queueCapacity        prometheus.Gauge
	queueDropped         *prometheus.CounterVec
	workerCount          prometheus.Gauge

	// Read model and live feed
	snapshots      *prometheus.CounterVec
	seasonsTracked prometheus.Gauge
	rosterSize     prometheus.Gauge
	sessions       prometheus.Gauge
	feedClients    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "reto",
		subsystem:        "scoreboard",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.grants = auto.NewCounterVec(m.counterOpts("grants_total", "Grant attempts by result (accepted, rejected)"), []string{"result"})
	m.boosts = auto.NewCounter(m.counterOpts("boosts_total", "Administrative boosts appended"))
	m.corrections = auto.NewCounterVec(m.counterOpts("corrections_total", "Total corrections by result (written, noop, invalid)"), []string{"result"})
	m.eventsEdited = auto.NewCounter(m.counterOpts("events_edited_total", "Point events overwritten from the history view"))
	m.seasonsCreated = auto.NewCounter(m.counterOpts("seasons_created_total", "Seasons created"))
	m.participantsAdded = auto.NewCounter(m.counterOpts("participants_added_total", "Participants added to the roster"))
	m.participantsSeeded = auto.NewCounter(m.counterOpts("participants_seeded_total", "Default roster seeding runs"))
	m.confirmations = auto.NewCounterVec(m.counterOpts("confirmations_total", "Destructive confirmations by action and outcome"), []string{"action", "outcome"})
	m.idempotentReplays = auto.NewCounter(m.counterOpts("idempotent_replays_total", "Requests skipped because their idempotency key was already used"))

	m.storeMutations = auto.NewCounterVec(m.counterOpts("store_mutations_total", "Store mutations applied by kind and status"), []string{"kind", "status"})
	m.storeMutationLatency = auto.NewHistogramVec(m.histogramOpts("store_mutation_latency_milliseconds", "Store mutation latency in milliseconds", m.histogramBuckets), []string{"kind"})
	m.queueSize = auto.NewGauge(m.gaugeOpts("mutation_queue_size", "Mutations waiting to be applied"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("mutation_queue_capacity", "Capacity of the mutation queue"))
	m.queueDropped = auto.NewCounterVec(m.counterOpts("mutation_queue_rejected_total", "Mutations rejected by the queue by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Workers applying mutations"))

	m.snapshots = auto.NewCounterVec(m.counterOpts("snapshots_total", "Snapshots received from the store by topic"), []string{"topic"})
	m.seasonsTracked = auto.NewGauge(m.gaugeOpts("seasons", "Seasons in the read model"))
	m.rosterSize = auto.NewGauge(m.gaugeOpts("roster_size", "Participants in the read model"))
	m.sessions = auto.NewGauge(m.gaugeOpts("sessions", "Live sessions"))
	m.feedClients = auto.NewGauge(m.gaugeOpts("feed_clients", "Connected live feed clients"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and error type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordGrant counts a grant attempt; accepted=false means the daily cap refused it.
func RecordGrant(accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	globalManager.grants.WithLabelValues(result).Inc()
}

// RecordBoost counts an administrative boost.
func RecordBoost() {
	globalManager.boosts.Inc()
}

// RecordCorrection counts a correction by result: written, noop or invalid.
func RecordCorrection(result string) {
	globalManager.corrections.WithLabelValues(result).Inc()
}

// RecordEventEdited counts a history overwrite.
func RecordEventEdited() {
	globalManager.eventsEdited.Inc()
}

// RecordSeasonCreated counts a season creation.
func RecordSeasonCreated() {
	globalManager.seasonsCreated.Inc()
}

// RecordParticipantAdded counts a roster addition.
func RecordParticipantAdded() {
	globalManager.participantsAdded.Inc()
}

// RecordRosterSeeded counts a default-roster seeding run.
func RecordRosterSeeded() {
	globalManager.participantsSeeded.Inc()
}

// RecordConfirmation counts a destructive action by outcome: requested, confirmed, cancelled or expired.
func RecordConfirmation(action, outcome string) {
	globalManager.confirmations.WithLabelValues(action, outcome).Inc()
}

// RecordIdempotentReplay counts a request skipped by its idempotency key.
func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

// RecordStoreMutation counts an applied mutation and observes its latency.
func RecordStoreMutation(kind string, ok bool, latencyMs float64) {
	status := "ok"
	if !ok {
		status = "error"
	}
	globalManager.storeMutations.WithLabelValues(kind, status).Inc()
	globalManager.storeMutationLatency.WithLabelValues(kind).Observe(latencyMs)
}

// UpdateQueueSize sets the current mutation queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the mutation queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a mutation the queue refused (full, closed, cancelled).
func RecordQueueRejected(reason string) {
	globalManager.queueDropped.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of mutation workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordSnapshot counts a snapshot delivered for topic.
func RecordSnapshot(topic string) {
	globalManager.snapshots.WithLabelValues(topic).Inc()
}

// UpdateReadModel sets the read model gauges.
func UpdateReadModel(seasons, participants int) {
	globalManager.seasonsTracked.Set(float64(seasons))
	globalManager.rosterSize.Set(float64(participants))
}

// UpdateSessions sets the number of live sessions.
func UpdateSessions(count int) {
	globalManager.sessions.Set(float64(count))
}

// AddFeedClients moves the feed client gauge by delta.
func AddFeedClients(delta int) {
	globalManager.feedClients.Add(float64(delta))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

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

// GetRegistry returns the registry the global manager registers on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the bookarena ranking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine
	comparisonsResolved prometheus.Counter
	pairsSelected       prometheus.Counter
	invalidDecisions    prometheus.Counter
	persistenceFailures prometheus.Counter
	resolveLatency      prometheus.Histogram
	itemsTotal          prometheus.Gauge
	comparisonsTotal    prometheus.Gauge
	aggregateConfidence prometheus.Gauge

	// Import / export / backup
	itemsImported prometheus.Counter
	exportsTotal  prometheus.Counter
	backupsTotal  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	idempotentReplays   prometheus.Counter

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bookarena",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500},
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.comparisonsResolved = m.counter("comparisons_resolved_total", "Total number of committed comparisons")
	m.pairsSelected = m.counter("pairs_selected_total", "Total number of pairs proposed by the selector")
	m.invalidDecisions = m.counter("invalid_decisions_total", "Total number of rejected decision inputs")
	m.persistenceFailures = m.counter("persistence_failures_total", "Total number of resolutions that failed to commit")
	m.resolveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolve_latency_milliseconds",
		Help:      "Latency of a full resolve step including the commit",
		Buckets:   m.histogramBuckets,
	})
	m.itemsTotal = m.gauge("items_total", "Number of items in the current session")
	m.comparisonsTotal = m.gauge("comparisons_total", "Number of comparison records in the current session")
	m.aggregateConfidence = m.gauge("aggregate_confidence", "Mean confidence score over all items")

	m.itemsImported = m.counter("items_imported_total", "Total number of items added by CSV import")
	m.exportsTotal = m.counter("exports_total", "Total number of ranking exports written")
	m.backupsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "backups_total",
		Help:      "Database backups by outcome",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_errors_total",
		Help:      "HTTP error responses by endpoint, method, type and severity",
	}, []string{"endpoint", "method", "error_type", "severity"})
	m.idempotentReplays = m.counter("idempotent_replays_total", "Requests answered from a stored idempotency key")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordComparisonResolved increments the committed comparisons counter.
func RecordComparisonResolved() { globalManager.comparisonsResolved.Inc() }

// RecordPairSelected increments the proposed pairs counter.
func RecordPairSelected() { globalManager.pairsSelected.Inc() }

// RecordInvalidDecision increments the rejected input counter.
func RecordInvalidDecision() { globalManager.invalidDecisions.Inc() }

// RecordPersistenceFailure increments the failed commit counter.
func RecordPersistenceFailure() { globalManager.persistenceFailures.Inc() }

// RecordResolveLatency records resolve latency in milliseconds.
func RecordResolveLatency(latencyMs float64) { globalManager.resolveLatency.Observe(latencyMs) }

// UpdateItemsTotal sets the number of items in the session.
func UpdateItemsTotal(count int) { globalManager.itemsTotal.Set(float64(count)) }

// UpdateComparisonsTotal sets the number of comparison records in the session.
func UpdateComparisonsTotal(count int) { globalManager.comparisonsTotal.Set(float64(count)) }

// UpdateAggregateConfidence sets the mean confidence score.
func UpdateAggregateConfidence(score float64) { globalManager.aggregateConfidence.Set(score) }

// RecordItemsImported adds n to the imported items counter.
func RecordItemsImported(n int) { globalManager.itemsImported.Add(float64(n)) }

// RecordExport increments the exports counter.
func RecordExport() { globalManager.exportsTotal.Inc() }

// RecordBackup records a backup attempt with outcome "ok" or "error".
func RecordBackup(outcome string) { globalManager.backupsTotal.WithLabelValues(outcome).Inc() }

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
}

// RecordIdempotentReplay counts a request answered from a stored key.
func RecordIdempotentReplay() { globalManager.idempotentReplays.Inc() }

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

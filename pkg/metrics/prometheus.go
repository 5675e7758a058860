// Package metrics provides Prometheus metrics for the league report batch job.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons reported by the normalizer.
const (
	DropNotObject = "not_object"
	DropNoGame    = "no_game"
	DropNoPlayer  = "no_player"
	DropDuplicate = "duplicate_player"
)

// Played-at lookup outcomes.
const (
	LookupResolved   = "resolved"
	LookupUnresolved = "unresolved"
	LookupCacheHit   = "cache_hit"
	LookupNoToken    = "no_token"
)

// Manager owns every metric of one report run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	leaderboardPages    prometheus.Counter

	entriesNormalized prometheus.Counter
	entriesDropped    *prometheus.CounterVec
	playedAtLookups   *prometheus.CounterVec
	entriesFiltered   prometheus.Counter

	mapsProcessed    prometheus.Counter
	reportBuild      *prometheus.HistogramVec
	workbooksWritten *prometheus.CounterVec
	lastSuccessUnix  prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton for the process

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry backing globalManager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "geoleague",
		subsystem:        "report",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Remote scoring service requests by endpoint and status code",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "Remote scoring service request latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "status_code"})

	m.leaderboardPages = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leaderboard_pages_total",
		Help:        "Leaderboard pages fetched",
		ConstLabels: m.constLabels,
	})

	m.entriesNormalized = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entries_normalized_total",
		Help:        "Leaderboard rows turned into entries",
		ConstLabels: m.constLabels,
	})

	m.entriesDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entries_dropped_total",
		Help:        "Leaderboard rows excluded during normalization by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.playedAtLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "played_at_lookups_total",
		Help:        "Played-at lookups by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.entriesFiltered = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entries_filtered_out_total",
		Help:        "Entries excluded by deadline filtering",
		ConstLabels: m.constLabels,
	})

	m.mapsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "maps_processed_total",
		Help:        "Maps fetched and normalized",
		ConstLabels: m.constLabels,
	})

	m.reportBuild = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "build_duration_milliseconds",
		Help:        "Time to rank and aggregate one report variant",
		Buckets:     []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
		ConstLabels: m.constLabels,
	}, []string{"variant"})

	m.workbooksWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "workbooks_written_total",
		Help:        "Workbooks written by variant",
		ConstLabels: m.constLabels,
	}, []string{"variant"})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_unix",
		Help:        "Unix time the last run finished successfully",
		ConstLabels: m.constLabels,
	})
}

// RecordHTTPRequest records one remote call with its latency.
func RecordHTTPRequest(endpoint string, statusCode int, latencyMs float64) {
	code := fmt.Sprint(statusCode)
	globalManager.httpRequests.WithLabelValues(endpoint, code).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, code).Observe(latencyMs)
}

// RecordLeaderboardPage increments the fetched page counter.
func RecordLeaderboardPage() {
	globalManager.leaderboardPages.Inc()
}

// RecordEntryNormalized increments the normalized entries counter.
func RecordEntryNormalized() {
	globalManager.entriesNormalized.Inc()
}

// RecordEntryDropped increments the dropped entries counter for reason.
func RecordEntryDropped(reason string) {
	globalManager.entriesDropped.WithLabelValues(reason).Inc()
}

// RecordPlayedAtLookup counts a played-at resolution by outcome.
func RecordPlayedAtLookup(outcome string) {
	globalManager.playedAtLookups.WithLabelValues(outcome).Inc()
}

// RecordEntriesFiltered adds n to the filtered-out counter.
func RecordEntriesFiltered(n int) {
	if n > 0 {
		globalManager.entriesFiltered.Add(float64(n))
	}
}

// RecordMapProcessed increments the processed maps counter.
func RecordMapProcessed() {
	globalManager.mapsProcessed.Inc()
}

// RecordBuildDuration observes the build time of one report variant.
func RecordBuildDuration(variant string, latencyMs float64) {
	globalManager.reportBuild.WithLabelValues(variant).Observe(latencyMs)
}

// RecordWorkbookWritten increments the written workbook counter.
func RecordWorkbookWritten(variant string) {
	globalManager.workbooksWritten.WithLabelValues(variant).Inc()
}

// MarkSuccess stamps the last successful run time.
func MarkSuccess(unix int64) {
	globalManager.lastSuccessUnix.Set(float64(unix))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in text exposition format, suitable for
// the node_exporter textfile collector. The file is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}

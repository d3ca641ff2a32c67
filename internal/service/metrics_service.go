package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the stats endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	rejectedEdits   *prometheus.CounterVec
	conflictsFound  prometheus.Counter
	validationsRun  prometheus.Counter
	swapsApplied    prometheus.Counter
	mergesApplied   prometheus.Counter
	feedRecords     prometheus.Gauge
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	validationCount      uint64
	conflictCount        uint64
	rejectedCount        uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	rejectedEdits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_rejected_edits_total",
		Help: "Total allocation commands rejected before applying",
	}, []string{"command"})

	conflictsFound := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_conflicts_total",
		Help: "Total conflict messages produced by validation runs",
	})

	validationsRun := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_validations_total",
		Help: "Total validation runs over session tables",
	})

	swapsApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_swaps_total",
		Help: "Total successful trainer exchanges",
	})

	mergesApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_merges_total",
		Help: "Total successful specialization merges",
	})

	feedRecords := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_records",
		Help: "Records in the current global assignment snapshot",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, rejectedEdits, conflictsFound,
		validationsRun, swapsApplied, mergesApplied, feedRecords,
		cacheLatency, cacheHits, cacheMisses, dbQueryDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		rejectedEdits:   rejectedEdits,
		conflictsFound:  conflictsFound,
		validationsRun:  validationsRun,
		swapsApplied:    swapsApplied,
		mergesApplied:   mergesApplied,
		feedRecords:     feedRecords,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// CountRejectedEdit counts a command rejected before mutating a table.
func (m *MetricsService) CountRejectedEdit(command string) {
	if m == nil {
		return
	}
	m.rejectedEdits.WithLabelValues(command).Inc()
	atomic.AddUint64(&m.rejectedCount, 1)
}

// ObserveValidation records one validation run and its conflict count.
func (m *MetricsService) ObserveValidation(conflicts int) {
	if m == nil {
		return
	}
	m.validationsRun.Inc()
	if conflicts > 0 {
		m.conflictsFound.Add(float64(conflicts))
		atomic.AddUint64(&m.conflictCount, uint64(conflicts))
	}
	atomic.AddUint64(&m.validationCount, 1)
}

// CountSwap counts a successful trainer exchange.
func (m *MetricsService) CountSwap() {
	if m == nil {
		return
	}
	m.swapsApplied.Inc()
}

// CountMerge counts a successful row merge.
func (m *MetricsService) CountMerge() {
	if m == nil {
		return
	}
	m.mergesApplied.Inc()
}

// SetFeedSize tracks the size of the installed feed snapshot.
func (m *MetricsService) SetFeedSize(records int) {
	if m == nil {
		return
	}
	m.feedRecords.Set(float64(records))
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics for the stats endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ValidationsRun:           atomic.LoadUint64(&m.validationCount),
		ConflictsFound:           atomic.LoadUint64(&m.conflictCount),
		RejectedEdits:            atomic.LoadUint64(&m.rejectedCount),
		CacheHitRatio:            cacheRatio,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

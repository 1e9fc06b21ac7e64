package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// caching, schedule imports and availability checks.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	importRuns      *prometheus.CounterVec
	importCreated   *prometheus.CounterVec
	importWarnings  prometheus.Counter
	importDuration  prometheus.Observer
	availability    *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	importRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_import_runs_total",
		Help: "Schedule import runs by outcome",
	}, []string{"outcome"})

	importCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_import_created_total",
		Help: "Entities created by schedule imports",
	}, []string{"entity"})

	importWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_import_warnings_total",
		Help: "Sessions skipped with a warning during schedule imports",
	})

	importDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_import_duration_seconds",
		Help:    "Duration of schedule import runs",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	availability := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_checks_total",
		Help: "Availability checks by target and result",
	}, []string{"target", "available"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		importRuns, importCreated, importWarnings, importDuration, availability, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		importRuns:      importRuns,
		importCreated:   importCreated,
		importWarnings:  importWarnings,
		importDuration:  importDuration,
		availability:    availability,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveImport records the outcome of one import run. result is nil for failed runs.
func (m *MetricsService) ObserveImport(result *models.ImportResult, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.importDuration.Observe(duration.Seconds())
	if failed || result == nil {
		m.importRuns.WithLabelValues("failed").Inc()
		return
	}
	m.importRuns.WithLabelValues("succeeded").Inc()
	m.importCreated.WithLabelValues("subject").Add(float64(result.SubjectsCreated))
	m.importCreated.WithLabelValues("group").Add(float64(result.GroupsCreated))
	m.importCreated.WithLabelValues("room").Add(float64(result.RoomsCreated))
	m.importCreated.WithLabelValues("assignment").Add(float64(result.AssignmentsCreated))
	m.importWarnings.Add(float64(len(result.Warnings)))
}

// RecordAvailabilityCheck counts one availability check for a room or professor.
func (m *MetricsService) RecordAvailabilityCheck(target string, available bool) {
	if m == nil {
		return
	}
	m.availability.WithLabelValues(target, strconv.FormatBool(available)).Inc()
}

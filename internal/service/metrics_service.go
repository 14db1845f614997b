package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the timetable generator.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationRuns     *prometheus.CounterVec
	generationDuration prometheus.Observer
	entriesCreated     prometheus.Counter
	conflictsDetected  prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
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

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Timetable generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generation runs",
		Buckets: prometheus.DefBuckets,
	})

	entriesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_entries_created_total",
		Help: "Total timetable entries produced by the solver",
	})

	conflictsDetected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_validation_conflicts",
		Help: "Conflicts reported by the most recent validation pass",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_cache_hits_total",
		Help: "Active timetable reads served from cache",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_cache_misses_total",
		Help: "Active timetable reads that fell through to the database",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns,
		generationDuration, entriesCreated, conflictsDetected, cacheHits,
		cacheMisses, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationRuns:     generationRuns,
		generationDuration: generationDuration,
		entriesCreated:     entriesCreated,
		conflictsDetected:  conflictsDetected,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records latency and counts for an HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveGeneration records the outcome of one generation run.
func (s *MetricsService) ObserveGeneration(outcome string, entries int, duration time.Duration) {
	s.generationRuns.WithLabelValues(outcome).Inc()
	s.generationDuration.Observe(duration.Seconds())
	if entries > 0 {
		s.entriesCreated.Add(float64(entries))
	}
}

// SetValidationConflicts publishes the conflict count of the latest pass.
func (s *MetricsService) SetValidationConflicts(count int) {
	s.conflictsDetected.Set(float64(count))
}

// CacheHit increments the timetable cache hit counter.
func (s *MetricsService) CacheHit() {
	s.cacheHits.Inc()
}

// CacheMiss increments the timetable cache miss counter.
func (s *MetricsService) CacheMiss() {
	s.cacheMisses.Inc()
}

package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
)

// Travel estimate resolution outcomes.
const (
	TravelSourceStored   = "stored"
	TravelSourceManual   = "manual"
	TravelSourceEstimate = "estimated"
	TravelSourceUnknown  = "unknown"
)

// MetricsService encapsulates Prometheus instrumentation.
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
	travelLookups   *prometheus.CounterVec
	overdueRows     *prometheus.GaugeVec
	confirmations   *prometheus.CounterVec
	photosRemoved   prometheus.Counter

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
		Help:    "Latency for cache operations",
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

	travelLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_minutes_lookups_total",
		Help: "Travel time resolutions by source",
	}, []string{"source"})

	overdueRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_overdue_rows",
		Help: "Overdue deadlines found by the latest alert evaluation",
	}, []string{"kind"})

	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_confirmations_total",
		Help: "Check-in confirmations by kind and outcome",
	}, []string{"kind", "outcome"})

	photosRemoved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arrival_photos_removed_total",
		Help: "Arrival photos removed by the retention job",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, travelLookups, overdueRows, confirmations, photosRemoved, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		travelLookups:   travelLookups,
		overdueRows:     overdueRows,
		confirmations:   confirmations,
		photosRemoved:   photosRemoved,
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
	labelStatus := fmt.Sprintf("%d", status)
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
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
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

// RecordTravelLookup counts where a travel estimate came from.
func (m *MetricsService) RecordTravelLookup(source string) {
	if m == nil {
		return
	}
	m.travelLookups.WithLabelValues(source).Inc()
}

// RecordConfirmation counts a check-in confirmation outcome.
func (m *MetricsService) RecordConfirmation(kind, outcome string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(kind, outcome).Inc()
}

// RecordPhotosRemoved counts files dropped by the retention job.
func (m *MetricsService) RecordPhotosRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.photosRemoved.Add(float64(n))
}

// ObserveAlertRows publishes overdue counts of an evaluation.
func (m *MetricsService) ObserveAlertRows(rows []dto.AlertRow) {
	if m == nil {
		return
	}
	var wake, depart, arrive int
	for _, row := range rows {
		if row.WakeOverdue {
			wake++
		}
		if row.DepartOverdue {
			depart++
		}
		if row.ArriveOverdue {
			arrive++
		}
	}
	m.overdueRows.WithLabelValues("wake").Set(float64(wake))
	m.overdueRows.WithLabelValues("depart").Set(float64(depart))
	m.overdueRows.WithLabelValues("arrive").Set(float64(arrive))
}

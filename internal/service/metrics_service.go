package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edukita/timetable-api/internal/dto"
	"github.com/edukita/timetable-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// generation engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationTotal    *prometheus.CounterVec
	generationDuration prometheus.Observer
	solverExpansions   prometheus.Histogram
	solverBacktracks   prometheus.Histogram
	warningsTotal      *prometheus.CounterVec
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

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_total",
		Help: "Timetable generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall-clock duration of generation runs",
		Buckets: prometheus.DefBuckets,
	})

	solverExpansions := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solver_expansions",
		Help:    "Search-tree expansions per generation run",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})

	solverBacktracks := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solver_backtracks",
		Help:    "Backtracks per generation run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	warningsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_warnings_total",
		Help: "Quality warnings emitted by generation runs",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationTotal, generationDuration, solverExpansions, solverBacktracks, warningsTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationTotal:    generationTotal,
		generationDuration: generationDuration,
		solverExpansions:   solverExpansions,
		solverBacktracks:   solverBacktracks,
		warningsTotal:      warningsTotal,
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

// ObserveGeneration records the outcome and solver statistics of one
// generation run. Stats and warnings are nil for failed runs.
func (m *MetricsService) ObserveGeneration(outcome string, duration time.Duration, stats *dto.SolveStats, warnings []models.Warning) {
	if m == nil {
		return
	}
	m.generationTotal.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	if stats != nil {
		m.solverExpansions.Observe(float64(stats.Expansions))
		m.solverBacktracks.Observe(float64(stats.Backtracks))
	}
	for _, w := range warnings {
		m.warningsTotal.WithLabelValues(string(w.Kind)).Inc()
	}
}

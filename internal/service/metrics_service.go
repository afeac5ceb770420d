package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the intake API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	ingestCycles    *prometheus.CounterVec
	ingestRecords   *prometheus.CounterVec
	solverFailures  prometheus.Counter
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

	ingestCycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_cycles_total",
		Help: "Ingestion cycles by outcome",
	}, []string{"outcome"})

	ingestRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_records_total",
		Help: "Records inserted by collection",
	}, []string{"collection"})

	solverFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_proxy_failures_total",
		Help: "Failed relays to the external solver",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, ingestCycles, ingestRecords, solverFailures, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ingestCycles:    ingestCycles,
		ingestRecords:   ingestRecords,
		solverFailures:  solverFailures,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveIngestCycle counts one ingestion attempt and its inserted records.
func (s *MetricsService) ObserveIngestCycle(success bool, records map[string]int) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	s.ingestCycles.WithLabelValues(outcome).Inc()
	for collection, count := range records {
		s.ingestRecords.WithLabelValues(collection).Add(float64(count))
	}
}

// ObserveSolverFailure counts one failed solver relay.
func (s *MetricsService) ObserveSolverFailure() {
	s.solverFailures.Inc()
}

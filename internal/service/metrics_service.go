package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	paymentsTotal     prometheus.Counter
	paymentsAmount    prometheus.Counter
	enrollmentsTotal  prometheus.Counter
	approvalsTotal    *prometheus.CounterVec
	documentsRendered prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
}

// NewMetricsService registers the API's Prometheus collectors.
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

	paymentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total number of payments recorded",
	})

	paymentsAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_amount_total",
		Help: "Cumulative amount collected across payments",
	})

	enrollmentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollments_registered_total",
		Help: "Total number of enrollment registrations",
	})

	approvalsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_approvals_total",
		Help: "Grade approval actions applied, by action",
	}, []string{"action"})

	documentsRendered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_rendered_total",
		Help: "Document request PDFs rendered",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_hits_total",
		Help: "Dashboard summaries served from cache",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_misses_total",
		Help: "Dashboard summaries built from the database",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, paymentsTotal, paymentsAmount,
		enrollmentsTotal, approvalsTotal, documentsRendered, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		paymentsTotal:     paymentsTotal,
		paymentsAmount:    paymentsAmount,
		enrollmentsTotal:  enrollmentsTotal,
		approvalsTotal:    approvalsTotal,
		documentsRendered: documentsRendered,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
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

// ObserveHTTPRequest records per-request latency and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordPayment counts a recorded payment and its amount.
func (m *MetricsService) RecordPayment(amount float64) {
	if m == nil {
		return
	}
	m.paymentsTotal.Inc()
	m.paymentsAmount.Add(amount)
}

// RecordEnrollment counts one registration.
func (m *MetricsService) RecordEnrollment() {
	if m == nil {
		return
	}
	m.enrollmentsTotal.Inc()
}

// RecordApproval counts one approval action.
func (m *MetricsService) RecordApproval(action string) {
	if m == nil {
		return
	}
	m.approvalsTotal.WithLabelValues(action).Inc()
}

// RecordDocumentRendered counts one rendered document.
func (m *MetricsService) RecordDocumentRendered() {
	if m == nil {
		return
	}
	m.documentsRendered.Inc()
}

// RecordDashboardCache tracks cache effectiveness of the dashboard.
func (m *MetricsService) RecordDashboardCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

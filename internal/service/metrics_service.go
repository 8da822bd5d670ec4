package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	applicationsSubmitted prometheus.Counter
	transitionsApplied    *prometheus.CounterVec
	tasksSubmitted        prometheus.Counter
	reviewsRecorded       *prometheus.CounterVec
	notificationsEmitted  *prometheus.CounterVec
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total catalog cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total catalog cache misses",
	})

	applicationsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "applications_submitted_total",
		Help: "Total applications submitted by students",
	})

	transitionsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "application_transitions_total",
		Help: "Total application status transitions applied",
	}, []string{"status"})

	tasksSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "task_submissions_total",
		Help: "Total task artifact submissions",
	})

	reviewsRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_reviews_total",
		Help: "Total mentor reviews recorded",
	}, []string{"action"})

	notificationsEmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_emitted_total",
		Help: "Total notifications recorded for users",
	}, []string{"type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		applicationsSubmitted, transitionsApplied, tasksSubmitted, reviewsRecorded, notificationsEmitted, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:              registry,
		handler:               handler,
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		cacheHits:             cacheHits,
		cacheMisses:           cacheMisses,
		applicationsSubmitted: applicationsSubmitted,
		transitionsApplied:    transitionsApplied,
		tasksSubmitted:        tasksSubmitted,
		reviewsRecorded:       reviewsRecorded,
		notificationsEmitted:  notificationsEmitted,
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

// RecordCacheOperation records catalog cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordApplicationSubmitted counts a new student application.
func (m *MetricsService) RecordApplicationSubmitted() {
	if m == nil {
		return
	}
	m.applicationsSubmitted.Inc()
}

// RecordTransition counts an applied status transition.
func (m *MetricsService) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitionsApplied.WithLabelValues(status).Inc()
}

// RecordTaskSubmission counts a task artifact submission.
func (m *MetricsService) RecordTaskSubmission() {
	if m == nil {
		return
	}
	m.tasksSubmitted.Inc()
}

// RecordReview counts a mentor review by verdict.
func (m *MetricsService) RecordReview(action string) {
	if m == nil {
		return
	}
	m.reviewsRecorded.WithLabelValues(action).Inc()
}

// RecordNotification counts an emitted notification by type.
func (m *MetricsService) RecordNotification(notificationType string) {
	if m == nil {
		return
	}
	m.notificationsEmitted.WithLabelValues(notificationType).Inc()
}

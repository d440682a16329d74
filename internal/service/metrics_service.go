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
	materialEvents  *prometheus.CounterVec
	changeEvents    *prometheus.CounterVec
	storeRefresh    *prometheus.HistogramVec
}

// NewMetricsService registers the portal's Prometheus collectors.
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

	materialEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_material_events_total",
		Help: "Material lifecycle events by kind",
	}, []string{"event"})

	changeEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_change_events_total",
		Help: "Collection change events consumed by the state store",
	}, []string{"collection"})

	storeRefresh := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_store_refresh_seconds",
		Help:    "Duration of state store snapshot refreshes",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, materialEvents, changeEvents, storeRefresh, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		materialEvents:  materialEvents,
		changeEvents:    changeEvents,
		storeRefresh:    storeRefresh,
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

// CountMaterialEvent bumps a material lifecycle counter, e.g. "approved"
// or "viewed".
func (m *MetricsService) CountMaterialEvent(event string) {
	if m == nil {
		return
	}
	m.materialEvents.WithLabelValues(event).Inc()
}

// CountChangeEvent bumps the consumed change-event counter.
func (m *MetricsService) CountChangeEvent(collection string) {
	if m == nil {
		return
	}
	m.changeEvents.WithLabelValues(collection).Inc()
}

// ObserveStoreRefresh records how long a mirror snapshot refresh took.
func (m *MetricsService) ObserveStoreRefresh(collection string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeRefresh.WithLabelValues(collection).Observe(duration.Seconds())
}

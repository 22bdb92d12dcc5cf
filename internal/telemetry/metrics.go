// Package telemetry exposes Prometheus metrics for the HTTP API and domain events.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"iotguardian/internal/models"
)

// Metrics holds every collector registered by the service.
type Metrics struct {
	gatherer            prometheus.Gatherer
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	sensorReadingsTotal *prometheus.CounterVec
	aiRequestsTotal     *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		sensorReadingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iotguardian_sensor_readings_total",
				Help: "Sensor readings received, by derived status",
			},
			[]string{"status"},
		),
		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iotguardian_ai_requests_total",
				Help: "AI troubleshooting calls, by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveReading counts one ingested reading.
func (m *Metrics) ObserveReading(status models.SensorStatus) {
	m.sensorReadingsTotal.WithLabelValues(string(status)).Inc()
}

// ObserveAI counts one provider call.
func (m *Metrics) ObserveAI(provider, outcome string) {
	m.aiRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// StatusCode is the status written so far, 200 if none was set explicitly.
func (rw *responseWriter) StatusCode() int {
	return rw.statusCode
}

// RoutePath is the mux route template for r, so ids do not explode label cardinality.
func RoutePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		path := RoutePath(r)

		m.httpRequestsTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(rw.statusCode),
		).Inc()

		m.httpRequestDuration.WithLabelValues(
			r.Method,
			path,
		).Observe(duration)
	})
}

// Package metrics exposes Prometheus counters for the emergency API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for alerts and uploads
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// Metrics owns a registry so tests and multiple servers do not collide on the
// global default registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	contactsSaved      prometheus.Counter
	alertsTotal        *prometheus.CounterVec
	videoUploadsTotal  *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 1.5, 2, 5},
		}, []string{"method", "route"}),
		contactsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "sos_contacts_saved_total",
			Help: "Emergency contacts saved.",
		}),
		alertsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_alerts_total",
			Help: "SOS alerts processed by outcome.",
		}, []string{"status"}),
		videoUploadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_video_uploads_total",
			Help: "Video uploads processed by outcome.",
		}, []string{"status"}),
		validationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_validation_failures_total",
			Help: "Rejected payloads by endpoint.",
		}, []string{"endpoint"}),
	}
}

// ContactSaved counts a stored contact
func (m *Metrics) ContactSaved() {
	m.contactsSaved.Inc()
}

// AlertProcessed counts an SOS request with its outcome
func (m *Metrics) AlertProcessed(outcome string) {
	m.alertsTotal.WithLabelValues(outcome).Inc()
}

// VideoProcessed counts a video upload with its outcome
func (m *Metrics) VideoProcessed(outcome string) {
	m.videoUploadsTotal.WithLabelValues(outcome).Inc()
}

// ValidationFailed counts a rejected payload
func (m *Metrics) ValidationFailed(endpoint string) {
	m.validationFailures.WithLabelValues(endpoint).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency. The route label is the chi
// route pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := NewStatusWriter(w)

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// StatusWriter captures the status code written by a handler
type StatusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// NewStatusWriter wraps w. The status defaults to 200.
func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	return &StatusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *StatusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Status returns the captured status code
func (w *StatusWriter) Status() int {
	return w.status
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController
func (w *StatusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

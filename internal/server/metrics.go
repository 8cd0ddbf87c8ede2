package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes request metrics in Prometheus format. Per-operation
// engine metrics are recorded by the boundary package into the same
// default registry.
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casbridge_http_active_requests",
		Help: "Current number of in-flight HTTP requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casbridge_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casbridge_http_evaluations_total",
		Help: "Expressions evaluated through the HTTP API by outcome",
	}, []string{"outcome"})
)

// NewMetrics returns the metrics exposition handler.
func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

func (m *Metrics) requestStarted() { activeRequests.Inc() }

func (m *Metrics) requestDone(route string, code int) {
	activeRequests.Dec()
	totalRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) evaluated(outcome string) { evaluations.WithLabelValues(outcome).Inc() }

// WritePrometheus serves the default registry in text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func (s *Server) metricsMiddleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := asRecorder(w)
		s.metrics.requestStarted()
		defer func() { s.metrics.requestDone(route, rec.status) }()
		next(rec, r)
	}
}

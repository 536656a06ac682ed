package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	conversionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversions_processed_total",
			Help: "Total number of conversion events processed",
		},
		[]string{"event", "result"},
	)

	campaignSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_saves_total",
			Help: "Total number of campaign save operations",
		},
		[]string{"result"},
	)

	templateSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_saves_total",
			Help: "Total number of template save operations",
		},
		[]string{"result"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordConversion(event, result string) {
	conversionsProcessed.WithLabelValues(event, result).Inc()
}

func RecordCampaignSave(result string) {
	campaignSaves.WithLabelValues(result).Inc()
}

func RecordTemplateSave(result string) {
	templateSaves.WithLabelValues(result).Inc()
}

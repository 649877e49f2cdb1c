package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ValidationsTotal tracks merchant validation outcomes
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merchant_validations_total",
			Help: "Total number of merchant validation requests",
		},
		[]string{"outcome"},
	)

	// TransactionsTotal tracks gateway transaction outcomes
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_transactions_total",
			Help: "Total number of gateway transactions",
		},
		[]string{"outcome"},
	)

	// RelayErrorsTotal tracks failures by taxonomy kind
	RelayErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_errors_total",
			Help: "Total number of relay errors by kind",
		},
		[]string{"kind"},
	)
)

// Middleware records request counts and latency for every route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
		RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

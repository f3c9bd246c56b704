// Package metrics provides Prometheus instrumentation for the storefront.
//
// Besides the standard HTTP metrics it exposes counters for the order
// pipeline so the best-effort parts (confirmation mail) stay observable
// without ever affecting transaction outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks how long each HTTP request takes,
	// broken down by method, path, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nomad",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nomad",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nomad",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// OrdersCreated counts orders inserted in pending state.
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nomad",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders created in pending state.",
	})

	// OrdersCompleted counts orders that reached completed state.
	OrdersCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nomad",
		Subsystem: "orders",
		Name:      "completed_total",
		Help:      "Orders finalized after payment.",
	})

	// PaymentVerifications counts verification attempts by outcome:
	// completed, not_completed, authority_error.
	PaymentVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nomad",
			Subsystem: "payments",
			Name:      "verifications_total",
			Help:      "Payment verification attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// MailFailures counts confirmation emails that could not be sent.
	// These are logged and counted, never surfaced to the client.
	MailFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nomad",
		Subsystem: "mail",
		Name:      "failures_total",
		Help:      "Order confirmation emails that failed to send.",
	})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		OrdersCreated,
		OrdersCompleted,
		PaymentVerifications,
		MailFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP
}

// statusRecorder captures the response status for labelling.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with duration, count, and in-flight
// gauges. Mount it outermost so latency covers the full middleware stack.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.status)
			RequestDuration.WithLabelValues(r.Method, r.URL.Path, status).
				Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		})
	}
}

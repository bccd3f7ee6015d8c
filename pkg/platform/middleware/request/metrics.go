package request

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Duration  *prometheus.HistogramVec
	Responses *prometheus.CounterVec
	Throttled *prometheus.CounterVec
}

// NewMetrics registers the HTTP metrics with reg, or the default registerer if reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatekeeper_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Responses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_http_responses_total",
			Help: "HTTP responses by route and status class",
		}, []string{"route", "class"}),
		Throttled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_http_throttled_total",
			Help: "Responses rejected with 429, by rate limit policy",
		}, []string{"policy"}),
	}
}

func (m *Metrics) observe(route, method string, status int, elapsed time.Duration, policy string) {
	m.Duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
	m.Responses.WithLabelValues(route, statusClass(status)).Inc()
	if status == http.StatusTooManyRequests {
		if policy == "" {
			policy = "unknown"
		}
		m.Throttled.WithLabelValues(policy).Inc()
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}

// Instrument records latency and response counts labelled by the matched chi
// route pattern, which keeps label cardinality bounded. A nil m is a no-op.
func Instrument(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.observe(route, r.Method, rec.Status(), time.Since(start), w.Header().Get("X-RateLimit-Policy"))
		})
	}
}

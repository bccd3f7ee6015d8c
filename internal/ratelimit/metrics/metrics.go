package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision outcomes.
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeExempt   = "exempt"
	OutcomeDegraded = "degraded"
)

type Metrics struct {
	Decisions   *prometheus.CounterVec
	StoreErrors *prometheus.CounterVec
	Degraded    *prometheus.CounterVec
	BreakerOpen prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_ratelimit_decisions_total",
			Help: "Rate limit decisions by policy and outcome",
		}, []string{"policy", "outcome"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_ratelimit_store_errors_total",
			Help: "Counter store failures by operation",
		}, []string{"op"}),
		Degraded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_ratelimit_degraded_total",
			Help: "Requests allowed without consulting the counter store",
		}, []string{"policy"}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "gatekeeper_ratelimit_store_breaker_open",
			Help: "1 while the counter store circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncrementDecision(policy, outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(policy, outcome).Inc()
}

func (m *Metrics) IncrementStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) IncrementDegraded(policy string) {
	if m == nil {
		return
	}
	m.Degraded.WithLabelValues(policy).Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

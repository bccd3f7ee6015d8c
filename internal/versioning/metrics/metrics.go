package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks API version negotiation.
type Metrics struct {
	Requests   *prometheus.CounterVec
	Rejected   prometheus.Counter
	Deprecated *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_api_version_requests_total",
			Help: "Requests resolved per API version",
		}, []string{"version"}),
		Rejected: f.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_api_version_rejected_total",
			Help: "Requests rejected for an unsupported API version",
		}),
		Deprecated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_api_version_deprecated_total",
			Help: "Requests served on a deprecated API version",
		}, []string{"version"}),
	}
}

func (m *Metrics) IncrementResolved(version string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(version).Inc()
}

func (m *Metrics) IncrementRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

func (m *Metrics) IncrementDeprecated(version string) {
	if m == nil {
		return
	}
	m.Deprecated.WithLabelValues(version).Inc()
}

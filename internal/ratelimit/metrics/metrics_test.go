package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementDecision("auth", OutcomeDenied)
	m.IncrementDecision("auth", OutcomeDenied)
	m.IncrementStoreError("increment")
	m.IncrementDegraded("api")
	m.SetBreakerOpen(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("auth", OutcomeDenied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degraded.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerOpen))

	m.SetBreakerOpen(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerOpen))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementDecision("api", OutcomeAllowed)
		m.IncrementStoreError("get")
		m.IncrementDegraded("api")
		m.SetBreakerOpen(true)
	})
}

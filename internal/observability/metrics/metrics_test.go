package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestQueryMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQueryMetrics(reg)

	m.ObserveStructured("success")
	m.ObserveStructured("success")
	m.ObserveStructured("no_match")
	m.ObserveEvidence("oracle_failed")
	m.ObserveIntentMatch("expiring_certificates")
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.structuredTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.structuredTotal.WithLabelValues("no_match")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.evidenceTotal.WithLabelValues("oracle_failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.intentMatches.WithLabelValues("expiring_certificates")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheTotal.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheTotal.WithLabelValues("miss")))
}

func TestQueryMetricsNilSafe(t *testing.T) {
	var m *QueryMetrics
	assert.NotPanics(t, func() {
		m.ObserveStructured("success")
		m.ObserveEvidence("success")
		m.ObserveIntentMatch("x")
		m.ObserveExecutorLatency(0.1)
		m.ObserveOracleLatency(1.0)
		m.ObserveCacheLookup(true)
	})
}

func TestQueryMetricsHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQueryMetrics(reg)

	m.ObserveExecutorLatency(0.05)
	m.ObserveOracleLatency(2.5)

	families, err := reg.Gather()
	assert.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "occuhealth_nlquery_executor_latency_seconds")
	assert.Contains(t, names, "occuhealth_nlquery_oracle_latency_seconds")
}

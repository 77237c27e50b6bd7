package metrics

import "github.com/prometheus/client_golang/prometheus"

// QueryMetrics exposes counters/histograms for both query pipelines.
type QueryMetrics struct {
	structuredTotal *prometheus.CounterVec
	evidenceTotal   *prometheus.CounterVec
	intentMatches   *prometheus.CounterVec
	executorLatency prometheus.Histogram
	oracleLatency   prometheus.Histogram
	cacheTotal      *prometheus.CounterVec
}

func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	m := &QueryMetrics{
		structuredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "occuhealth",
			Subsystem: "nlquery",
			Name:      "structured_total",
			Help:      "Structured query pipeline requests by outcome",
		}, []string{"outcome"}),
		evidenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "occuhealth",
			Subsystem: "nlquery",
			Name:      "evidence_total",
			Help:      "Evidence pipeline requests by outcome",
		}, []string{"outcome"}),
		intentMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "occuhealth",
			Subsystem: "nlquery",
			Name:      "intent_matches_total",
			Help:      "Intent template matches by template name",
		}, []string{"intent"}),
		executorLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "occuhealth",
			Subsystem: "nlquery",
			Name:      "executor_latency_seconds",
			Help:      "Latency of tenant store query execution",
			Buckets:   prometheus.DefBuckets,
		}),
		oracleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "occuhealth",
			Subsystem: "nlquery",
			Name:      "oracle_latency_seconds",
			Help:      "Latency of answer synthesis oracle calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "occuhealth",
			Subsystem: "nlquery",
			Name:      "answer_cache_total",
			Help:      "Answer cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.structuredTotal, m.evidenceTotal, m.intentMatches,
		m.executorLatency, m.oracleLatency, m.cacheTotal)
	return m
}

func (m *QueryMetrics) ObserveStructured(outcome string) {
	if m == nil {
		return
	}
	m.structuredTotal.WithLabelValues(outcome).Inc()
}

func (m *QueryMetrics) ObserveEvidence(outcome string) {
	if m == nil {
		return
	}
	m.evidenceTotal.WithLabelValues(outcome).Inc()
}

func (m *QueryMetrics) ObserveIntentMatch(intent string) {
	if m == nil {
		return
	}
	m.intentMatches.WithLabelValues(intent).Inc()
}

func (m *QueryMetrics) ObserveExecutorLatency(seconds float64) {
	if m == nil {
		return
	}
	m.executorLatency.Observe(seconds)
}

func (m *QueryMetrics) ObserveOracleLatency(seconds float64) {
	if m == nil {
		return
	}
	m.oracleLatency.Observe(seconds)
}

func (m *QueryMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

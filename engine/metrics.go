package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Mirrors the teacher's engine/metrics.go (enginRequestsTotal /
// enginRequestDuration) one-for-one, relabeled for rule execution
// instead of HTTP requests.
var (
	ruleResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anvil",
			Subsystem: "engine",
			Name:      "rule_results_total",
			Help:      "Total rules reaching a terminal state, by status.",
		},
		[]string{"status"},
	)

	ruleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "anvil",
			Subsystem: "engine",
			Name:      "rule_duration_seconds",
			Help:      "Rule begin-to-terminal latency, by terminal status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(ruleResultsTotal, ruleDuration)
}

func recordRuleResult(status string, seconds float64) {
	ruleResultsTotal.WithLabelValues(status).Inc()
	ruleDuration.WithLabelValues(status).Observe(seconds)
}

package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// tasksTotal mirrors the counters the teacher's engine/metrics.go keeps
// for rule execution, relabeled for the task-executor tier.
var tasksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "anvil_executor_tasks_total",
		Help: "Number of tasks executed by a Pool executor, by outcome.",
	},
	[]string{"status"},
)

func init() {
	prometheus.MustRegister(tasksTotal)
}

func recordTask(succeeded bool) {
	if succeeded {
		tasksTotal.WithLabelValues("succeeded").Inc()
	} else {
		tasksTotal.WithLabelValues("failed").Inc()
	}
}

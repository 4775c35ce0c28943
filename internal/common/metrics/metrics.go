// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// StageTransitions counts every stage an agent moves a record into.
	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_stage_transitions_total",
			Help: "Stage transitions by owning agent and resulting stage",
		},
		[]string{"agent", "stage"},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_decisions_total",
			Help: "Underwriting decisions by outcome",
		},
		[]string{"decision"},
	)

	ApplicationsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_applications_persisted_total",
			Help: "Applications written to storage by status",
		},
		[]string{"status"},
	)
)

// RecordTransition is a convenience for the agents and the orchestrator.
func RecordTransition(agent, stage string) {
	StageTransitions.WithLabelValues(agent, stage).Inc()
}

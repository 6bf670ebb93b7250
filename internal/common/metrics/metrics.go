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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// outcome: matched | empty
	MatchesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_matches_generated_total",
			Help: "Match runs by outcome",
		},
		[]string{"outcome"},
	)

	MatchConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_match_confidence",
			Help:    "Confidence percentage of generated match results",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// source: override | assign | cascade
	AssignmentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_assignments_created_total",
			Help: "Lead assignments written to the ledger",
		},
		[]string{"source"},
	)

	// response: ACCEPTED | DECLINED | REJECTED
	ContractorResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_responses_total",
			Help: "Contractor responses to lead assignments",
		},
		[]string{"response"},
	)

	// outcome: reassigned | exhausted | skipped_locked | not_triggered
	Cascades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_cascades_total",
			Help: "Reassignment cascade evaluations by outcome",
		},
		[]string{"outcome"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_notifications_total",
			Help: "Notifications dispatched by event and status",
		},
		[]string{"event", "status"},
	)
)

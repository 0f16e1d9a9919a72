package schedulers

import (
	"ocstat/internal/shared/metrics"
)

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

var (
	metricJobRunsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubScheduler,
			Name:      "job_runs_total",
		},
		[]string{metrics.FieldJob, metrics.FieldOutcome, metrics.FieldErrorCode},
	)

	metricJobDurationSeconds = metrics.NewHistogramVec(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubScheduler,
			Name:      "job_duration_seconds",
			Buckets:   metrics.DefBuckets,
		},
		[]string{metrics.FieldJob},
	)

	metricJobNextFireSeconds = metrics.NewGaugeVec(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubScheduler,
			Name:      "job_next_fire_timestamp_seconds",
			Help:      "Unix time of the next scheduled run.",
		},
		[]string{metrics.FieldJob},
	)
)

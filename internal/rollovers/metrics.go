package rollovers

import (
	"ocstat/internal/shared/metrics"
)

var (
	// metricRolloversTotal counts rollover attempts per window. A non-empty
	// error_code means the window stayed open.
	metricRolloversTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubRollover,
			Name:      "rollovers_total",
		},
		[]string{metrics.FieldWindow, metrics.FieldErrorCode},
	)

	metricSnapshotWritesTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubRollover,
			Name:      "snapshot_writes_total",
		},
		[]string{metrics.FieldWindow, metrics.FieldErrorCode},
	)

	metricRolloverDurationSeconds = metrics.NewHistogramVec(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubRollover,
			Name:      "rollover_duration_seconds",
			Buckets:   metrics.DefBuckets,
		},
		[]string{metrics.FieldWindow},
	)
)

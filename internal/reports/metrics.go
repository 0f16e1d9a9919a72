package reports

import (
	"ocstat/internal/shared/metrics"
)

const (
	outcomeSent    = "sent"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

var (
	// metricReportsTotal counts delivery attempts. skipped means the window
	// had no activity and empty reports are not sent.
	metricReportsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubReport,
			Name:      "deliveries_total",
		},
		[]string{metrics.FieldWindow, metrics.FieldOutcome, metrics.FieldErrorCode},
	)

	metricRenderDurationSeconds = metrics.NewHistogramVec(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubReport,
			Name:      "render_duration_seconds",
			Buckets:   metrics.DefBuckets,
		},
		[]string{metrics.FieldWindow},
	)
)

package jobs

import (
	"ocstat/internal/shared/metrics"
)

var (
	metricNoticesSentTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubReport,
			Name:      "notices_sent_total",
		},
		[]string{"kind", metrics.FieldErrorCode},
	)

	metricCollectRecordsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "collect_records_total",
		},
		[]string{metrics.FieldSource, metrics.FieldOutcome},
	)
)

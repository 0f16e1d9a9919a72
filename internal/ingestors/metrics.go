package ingestors

import (
	"ocstat/internal/shared/metrics"
)

var (
	metricBatchIngestedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubIngestion,
			Name:      "batch_ingested_total",
		},
		[]string{metrics.FieldErrorCode},
	)

	metricRecordsIngestedTotal = metrics.NewCounter(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubIngestion,
			Name:      "records_ingested_total",
		},
	)
)

package streams

import (
	"ocstat/internal/shared/metrics"
)

var (
	streamSessionRecords = "session_records"

	metricSessionRecordsPublishedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubStream,
			Name:      "session_records_published_total",
		},
		[]string{"stream_id", metrics.FieldErrorCode},
	)

	// metricQueueDepth is sampled on every publish and drain.
	metricQueueDepth = metrics.NewGaugeVec(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubStream,
			Name:      "queue_depth",
		},
		[]string{"stream_id"},
	)
)

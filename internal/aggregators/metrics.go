package aggregators

import (
	"ocstat/internal/shared/metrics"
)

const (
	outcomeAccepted = "accepted"
	outcomeLate     = "late"
	outcomeDeferred = "deferred"
	outcomeRejected = "rejected"
	outcomeConnect  = "connect"
)

// metricSessionRecordsTotal counts every record handed to the aggregator by outcome.
//
//   - accepted: added to the open daily window
//   - late: timestamped in an already closed day of the open month, added to monthly only
//   - deferred: timestamped after the open day, held until the next daily rollover
//   - rejected: failed validation or precedes the open month; error_code says which
//   - connect: connect events, used for known-IP tracking only
var (
	metricSessionRecordsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "session_records_total",
		},
		[]string{metrics.FieldOutcome, metrics.FieldErrorCode},
	)

	// metricAccumulatorCreatedTotal counts accumulators created lazily on a
	// user's first activity in a window. bucket_id is "day-DD" or "month-MM".
	metricAccumulatorCreatedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "accumulator_created_total",
		},
		[]string{metrics.FieldWindow, "bucket_id"},
	)

	metricKnownIPLookupFailedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "known_ip_lookup_failed_total",
		},
		[]string{metrics.FieldErrorCode},
	)
)

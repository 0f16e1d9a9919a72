package sources

import (
	"ocstat/internal/shared/metrics"
)

var (
	// metricFetchesTotal counts FetchSince calls per source and result.
	metricFetchesTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubSource,
			Name:      "fetches_total",
		},
		[]string{metrics.FieldSource, metrics.FieldErrorCode},
	)

	metricRecordsFetchedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubSource,
			Name:      "records_fetched_total",
		},
		[]string{metrics.FieldSource},
	)

	// metricMalformedLinesTotal counts file source lines that are not JSON records.
	metricMalformedLinesTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubSource,
			Name:      "malformed_lines_total",
		},
		[]string{metrics.FieldSource},
	)

	metricRadiusPacketsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubSource,
			Name:      "radius_packets_total",
		},
		[]string{"status_type", metrics.FieldErrorCode},
	)
)

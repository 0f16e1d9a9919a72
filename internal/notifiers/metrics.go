package notifiers

import (
	"ocstat/internal/shared/metrics"
)

var (
	// metricNotifierSendsTotal counts outbound calls by method and result.
	// error_code is the Telegram error code, "transport" or empty on success.
	metricNotifierSendsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubReport,
			Name:      "notifier_sends_total",
		},
		[]string{"method", metrics.FieldErrorCode},
	)
)

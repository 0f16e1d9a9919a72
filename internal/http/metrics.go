package http

import (
	"ocstat/internal/shared/metrics"
)

var requestLabels = []string{"method", "route", "status", metrics.FieldErrorCode}

var (
	metricHTTPRequestsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubHTTP,
			Name:      "requests_total",
			Help:      "HTTP requests served, by chi route pattern.",
		},
		requestLabels,
	)

	// Chart rendering dominates the slow end.
	metricHTTPRequestDuration = metrics.NewHistogramVec(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubHTTP,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by chi route pattern.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		requestLabels,
	)
)

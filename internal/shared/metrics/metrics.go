// Package metrics re-exports the prometheus pieces ocstat uses, so collectors
// are declared in one style and all land on the default registry served at
// /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label names shared across packages.
const (
	FieldErrorCode = "error_code"
	FieldWindow    = "window"
	FieldJob       = "job"
	FieldOutcome   = "outcome"
	FieldSource    = "source"
)

// ValueNoError is the error_code label of a successful operation.
const ValueNoError = ""

const (
	Namespace      = "ocstat"
	SubIngestion   = "ingestion"
	SubAggregation = "aggregation"
	SubRollover    = "rollover"
	SubReport      = "report"
	SubScheduler   = "scheduler"
	SubSource      = "source"
	SubStream      = "stream"
	SubHTTP        = "http"
)

type (
	CounterOpts   = prometheus.CounterOpts
	GaugeOpts     = prometheus.GaugeOpts
	HistogramOpts = prometheus.HistogramOpts
)

var DefBuckets = prometheus.DefBuckets

// Constructors register with the default registry on creation.
var (
	NewCounter      = promauto.NewCounter
	NewCounterVec   = promauto.NewCounterVec
	NewGaugeVec     = promauto.NewGaugeVec
	NewHistogramVec = promauto.NewHistogramVec
)

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

package http

import (
	"net/http"

	"ocstat/internal/ingestors"
	"ocstat/internal/reports"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"

	"github.com/go-chi/chi/v5"
)

// RouterOptions carries the services behind each route. A nil
// IngestionService leaves POST /sessions unregistered.
type RouterOptions struct {
	IngestionService ingestors.IngestionService
	SnapshotReader   reports.SnapshotReader
	Generator        reports.Generator
	ChartRenderer    reports.ChartRenderer
	Jobs             JobLister
}

// NewRouter creates and configures the HTTP router.
func NewRouter(opts RouterOptions, httpLogger loggers.Logger) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, httpLogger)

	// Routes
	router.Get("/healthz", errorHandlingAdapter(NewHealthHandler(opts.Jobs)))
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	if opts.IngestionService != nil {
		router.Post("/sessions", errorHandlingAdapter(NewIngestSessionHandler(opts.IngestionService)))
	}

	router.Get("/reports/{window}", errorHandlingAdapter(NewReportHandler(opts.SnapshotReader, opts.Generator)))
	router.Get("/reports/{window}/chart", errorHandlingAdapter(NewReportChartHandler(opts.SnapshotReader, opts.Generator, opts.ChartRenderer)))

	return router
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"ocstat/internal/aggregators"
	internalhttp "ocstat/internal/http"
	"ocstat/internal/jobs"
	"ocstat/internal/models"
	"ocstat/internal/reports"
	"ocstat/internal/rollovers"
	"ocstat/internal/schedulers"
	"ocstat/internal/shared/configs"
	"ocstat/internal/shared/filestorages"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/sources"
	"ocstat/internal/stores"
	"ocstat/internal/streams"

	"github.com/coder/quartz"
)

// App holds all application dependencies and manages lifecycle.
type App struct {
	config    *configs.Config
	appLogger loggers.Logger
	logCloser io.Closer
	clock     quartz.Clock
	server    *http.Server

	rollover  rollovers.Manager
	scheduler *schedulers.Scheduler
	radius    *sources.RadiusListener
	queue     *streams.PartitionedQueue[models.SessionRecord]
	resources *resources

	backgroundCtx    context.Context
	backgroundCancel context.CancelFunc
	schedulerDone    chan struct{}
	started          atomic.Bool
	// restored guards the final checkpoint: windows that were never
	// restored must not overwrite what is persisted.
	restored atomic.Bool
}

// New creates and initializes a new App instance. Every backend is chosen
// here from configuration; nothing below this point reads config.
func New(config *configs.Config) (*App, error) {
	appLogger, logCloser, err := loggers.New(loggers.Options{
		Level:      config.Log.Level,
		File:       config.Log.File,
		MaxSizeMB:  config.Log.MaxSizeMB,
		MaxBackups: config.Log.MaxBackups,
		MaxAgeDays: config.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger = appLogger.With().
		Str(loggers.FieldApp, "ocstat").
		Logger()

	app, err := build(config, appLogger)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	app.logCloser = logCloser
	return app, nil
}

func build(config *configs.Config, appLogger loggers.Logger) (*App, error) {
	res := &resources{}
	fail := func(err error) (*App, error) {
		res.closeAll(appLogger)
		return nil, err
	}

	clock := quartz.NewReal()
	location := config.Deployment.Location()

	// Initialize blob store
	fileStorage, err := filestorages.NewFileStorage(config.FileStorage.RootDir)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize storage: %w", err))
	}

	snapshotStore, err := newSnapshotStore(config, fileStorage, res)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize snapshot store: %w", err))
	}

	wiring, err := newSource(config, fileStorage, clock, appLogger, res)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize source %q: %w", config.Source.Backend, err))
	}

	notifier, err := newNotifier(config)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize notifier: %w", err))
	}

	onRollover, err := rolloverKinds(config.Report.OnRollover)
	if err != nil {
		return fail(fmt.Errorf("failed to parse report.on_rollover: %w", err))
	}

	// Initialize aggregation
	now := clock.Now().In(location)
	accumulatorStore := stores.NewAccumulatorStore(now)
	rolluper := aggregators.NewUsageRolluper()
	aggregator := aggregators.NewAggregator(accumulatorStore, rolluper, wiring.registry, clock, aggregators.Options{
		UsernameSeparator: config.Source.UsernameSeparator,
		NotifyNewIPs:      config.Notifier.NotifyNewIPs && !wiring.hookNotifies,
		NotifyDisconnects: config.Notifier.NotifyDisconnects && !wiring.hookNotifies,
	})
	rolloverManager := rollovers.NewManager(accumulatorStore, snapshotStore, rolluper, aggregator)

	// Initialize reporting
	generator := reports.NewGenerator(clock)
	renderer := reports.NewChartRenderer(reports.ChartOptions{
		Width:  config.Report.Chart.Width,
		Height: config.Report.Chart.Height,
		Title:  config.Report.Chart.Title,
	})
	deliverer := reports.NewDeliverer(renderer, notifier, fileStorage, clock, reports.DelivererOptions{
		Tag:       config.Deployment.Tag,
		SendEmpty: config.Report.SendEmpty,
		Archive:   config.Report.Archive,
	})

	// Initialize scheduler and jobs
	scheduler := schedulers.NewScheduler(clock, schedulers.Options{
		PollDelay:  time.Duration(config.Schedule.PollDelaySeconds) * time.Second,
		JobTimeout: time.Duration(config.Schedule.JobTimeoutSeconds) * time.Second,
		Location:   location,
	})
	collectJob := jobs.NewCollectJob(
		wiring.source,
		aggregator,
		rolloverManager,
		generator,
		deliverer,
		notifier,
		stores.NewSourceCursorStore(fileStorage),
		clock,
		jobs.CollectOptions{
			Tag:              config.Deployment.Tag,
			ReportOnRollover: onRollover,
			InitialCursor:    models.WindowMonthly.Start(now),
		},
	)
	if err := registerJobs(config, scheduler, collectJob, accumulatorStore, rolloverManager, generator, deliverer, stores.NewReportMarkStore(fileStorage), onRollover); err != nil {
		return fail(fmt.Errorf("failed to register jobs: %w", err))
	}

	// Initialize http router
	httpLogger := appLogger.With().Str(loggers.FieldComponent, "http").Logger()
	router := internalhttp.NewRouter(internalhttp.RouterOptions{
		IngestionService: wiring.ingestionService,
		SnapshotReader:   accumulatorStore,
		Generator:        generator,
		ChartRenderer:    renderer,
		Jobs:             scheduler,
	}, httpLogger)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderTimeout) * time.Second,
		ReadTimeout:       time.Duration(config.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(config.Server.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(config.Server.IdleTimeout) * time.Second,
	}

	backgroundCtx, backgroundCancel := context.WithCancel(appLogger.WithContext(context.Background()))

	return &App{
		config:           config,
		appLogger:        appLogger,
		clock:            clock,
		server:           server,
		rollover:         rolloverManager,
		scheduler:        scheduler,
		radius:           wiring.radius,
		queue:            wiring.queue,
		resources:        res,
		backgroundCtx:    backgroundCtx,
		backgroundCancel: backgroundCancel,
		schedulerDone:    make(chan struct{}),
	}, nil
}

// registerJobs sets up the three cadences: collection, the daily report and
// the monthly report. In test mode both reports run on the test interval and
// show the open window. In production the monthly report is the last closed
// month, sent at the daily report time unless it already goes out on rollover.
func registerJobs(
	config *configs.Config,
	scheduler *schedulers.Scheduler,
	collectJob *jobs.CollectJob,
	reader reports.SnapshotReader,
	rollover rollovers.Manager,
	generator reports.Generator,
	deliverer reports.Deliverer,
	marks stores.SourceOffsetStore,
	onRollover []models.WindowKind,
) error {
	testMode := config.Schedule.Mode == configs.ScheduleModeTest
	testInterval := time.Duration(config.Schedule.TestIntervalSeconds) * time.Second
	reportTrigger := schedulers.ReportTrigger(testMode, config.Schedule.DailyReportTime, testInterval)

	if err := scheduler.RegisterInterval("collect", config.Schedule.CollectIntervalSeconds, collectJob.Run); err != nil {
		return err
	}

	dailyReport := jobs.NewReportJob(reader, generator, deliverer, models.WindowDaily)
	if err := scheduler.Register("daily-report", reportTrigger, dailyReport.Run); err != nil {
		return err
	}

	switch {
	case testMode:
		monthlyReport := jobs.NewReportJob(reader, generator, deliverer, models.WindowMonthly)
		return scheduler.Register("monthly-report", reportTrigger, monthlyReport.Run)
	case !containsKind(onRollover, models.WindowMonthly):
		monthlyReport := jobs.NewClosedWindowReportJob(rollover, generator, deliverer, marks, models.WindowMonthly)
		return scheduler.Register("monthly-report", reportTrigger, monthlyReport.Run)
	default:
		return nil
	}
}

// Start restores the open windows, launches the background loops and then
// serves HTTP, blocking until the server stops.
func (app *App) Start() error {
	app.appLogger.Info().
		Msgf("Starting ocstat on port %d (source=%s, persistence=%s, schedule=%s, timezone=%s)",
			app.config.Server.Port,
			app.config.Source.Backend,
			app.config.Persistence.Backend,
			app.config.Schedule.Mode,
			app.config.Deployment.Timezone)

	app.started.Store(true)

	// A failed restore must not start empty windows: the next checkpoint
	// would overwrite the persisted month-to-date with smaller figures.
	if err := app.rollover.Restore(app.backgroundCtx, app.clock.Now().In(app.config.Deployment.Location())); err != nil {
		close(app.schedulerDone)
		return fmt.Errorf("failed to restore open windows: %w", err)
	}
	app.restored.Store(true)

	schedulerCtx := app.appLogger.With().Str(loggers.FieldComponent, "scheduler").Logger().WithContext(app.backgroundCtx)
	go func() {
		defer close(app.schedulerDone)
		if err := app.scheduler.Run(schedulerCtx); err != nil {
			app.appLogger.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	if app.radius != nil {
		go func() {
			if err := app.radius.ListenAndServe(); err != nil {
				app.appLogger.Error().Err(err).Msg("radius listener failed")
			}
		}()
	}

	return app.server.ListenAndServe()
}

// Shutdown gracefully shuts down the application.
func (app *App) Shutdown(ctx context.Context) error {
	var errs []error

	// 1) Stop accepting pushes
	app.appLogger.Info().Msg("Shutting down server...")
	if err := app.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown failed: %w", err))
	}
	if app.radius != nil {
		if err := app.radius.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("radius shutdown failed: %w", err))
		}
	}
	app.appLogger.Info().Msg("Server stopped")

	// 2) Stop the scheduler and wait for the running job
	app.backgroundCancel()
	if app.started.Load() {
		select {
		case <-app.schedulerDone:
			app.appLogger.Info().Msg("Scheduler stopped")
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("scheduler did not stop: %w", ctx.Err()))
		}
	}

	// 3) Persist the open windows one last time
	if app.restored.Load() {
		checkpointCtx := app.appLogger.WithContext(ctx)
		if err := app.rollover.Checkpoint(checkpointCtx); err != nil {
			errs = append(errs, fmt.Errorf("final checkpoint failed: %w", err))
		} else {
			app.appLogger.Info().Msg("Open windows checkpointed")
		}
	}

	// 4) Release backends
	if app.queue != nil {
		if pending := app.queue.Len(); pending > 0 {
			app.appLogger.Warn().Int("pending", pending).Msg("dropping queued session records")
		}
		app.queue.Close()
	}
	app.resources.closeAll(app.appLogger)
	if app.logCloser != nil {
		_ = app.logCloser.Close()
	}

	return errors.Join(errs...)
}

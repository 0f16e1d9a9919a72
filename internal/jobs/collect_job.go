package jobs

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"ocstat/internal/aggregators"
	"ocstat/internal/events"
	"ocstat/internal/models"
	"ocstat/internal/notifiers"
	"ocstat/internal/reports"
	"ocstat/internal/rollovers"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/svcerrors"
	"ocstat/internal/sources"
	"ocstat/internal/stores"

	"github.com/coder/quartz"
)

type CollectOptions struct {
	Tag string
	// ReportOnRollover lists the window kinds whose closing report is
	// delivered as soon as the window rolls over.
	ReportOnRollover []models.WindowKind
	// InitialCursor is used when no cursor was saved for the source yet.
	InitialCursor time.Time
}

// CollectJob is the per-tick pipeline: fetch from the source, ingest, send
// connection notices, roll closed windows over, deliver closing reports,
// checkpoint, then acknowledge the source.
//
// The read cursor moves in memory as soon as records are ingested, so a tick
// that fails later never ingests them again. Only the durable cursor and the
// source acknowledgement wait for a successful checkpoint.
type CollectJob struct {
	source      sources.Source
	aggregator  aggregators.Aggregator
	rollover    rollovers.Manager
	generator   reports.Generator
	deliverer   reports.Deliverer
	notifier    notifiers.Notifier
	cursorStore stores.SourceOffsetStore
	clock       quartz.Clock
	opts        CollectOptions

	mu     sync.Mutex
	cursor time.Time
	saved  time.Time
	loaded bool
}

func NewCollectJob(
	source sources.Source,
	aggregator aggregators.Aggregator,
	rollover rollovers.Manager,
	generator reports.Generator,
	deliverer reports.Deliverer,
	notifier notifiers.Notifier,
	cursorStore stores.SourceOffsetStore,
	clock quartz.Clock,
	opts CollectOptions,
) *CollectJob {
	return &CollectJob{
		source:      source,
		aggregator:  aggregator,
		rollover:    rollover,
		generator:   generator,
		deliverer:   deliverer,
		notifier:    notifier,
		cursorStore: cursorStore,
		clock:       clock,
		opts:        opts,
	}
}

// Run executes one tick. A source failure skips ingest but boundaries are
// still checked, so a dead source never holds a window open.
func (j *CollectJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	name := j.source.Name()
	ctx = loggers.Ctx(ctx).With().Str(loggers.FieldSource, name).Logger().WithContext(ctx)
	logger := loggers.Ctx(ctx)

	var errs []error

	since, err := j.loadCursor(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		records, err := j.source.FetchSince(ctx, since)
		if err != nil {
			logger.Error().Err(err).
				Str(loggers.FieldErrorCode, svcerrors.CodeOf(err)).
				Time("since", since).
				Msg("session source unavailable, ingest skipped this tick")
			errs = append(errs, err)
		} else {
			result := j.aggregator.Ingest(ctx, records)
			j.recordOutcome(name, len(records), result)
			j.sendNotices(ctx, result.Notices)
			if result.LatestTimestamp.After(j.cursor) {
				j.cursor = result.LatestTimestamp
			}
		}
	}

	closed, err := j.rollover.CheckBoundaries(ctx, j.clock.Now())
	for _, event := range closed {
		if !slices.Contains(j.opts.ReportOnRollover, event.WindowKind) {
			continue
		}
		report := j.generator.BuildSnapshot(event.Snapshot)
		if _, derr := j.deliverer.Deliver(ctx, report); derr != nil {
			errs = append(errs, errReportFailed(event.WindowKind, derr))
		}
	}
	if err != nil {
		// Already logged with window context by the rollover manager.
		errs = append(errs, err)
	}

	if err := j.rollover.Checkpoint(ctx); err != nil {
		svcErr := errCheckpointFailed(err)
		logger.Error().Err(svcErr).Str(loggers.FieldErrorCode, svcErr.Code).Msg("checkpoint failed, source not acknowledged")
		return errors.Join(append(errs, svcErr)...)
	}

	if j.loaded {
		if err := j.commit(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (j *CollectJob) loadCursor(ctx context.Context) (time.Time, error) {
	if j.loaded {
		return j.cursor, nil
	}
	cursors, err := j.cursorStore.Load(ctx)
	if err != nil {
		return time.Time{}, errCursorFailed(j.source.Name(), err)
	}
	j.cursor = j.opts.InitialCursor
	if nanos, ok := cursors[j.source.Name()]; ok {
		j.cursor = time.Unix(0, nanos).UTC()
	}
	j.saved = j.cursor
	j.loaded = true
	return j.cursor, nil
}

// commit makes everything read so far durable, including reads of earlier
// ticks whose checkpoint failed. It runs after the checkpoint, so a crash in
// between re-reads those records on restart.
func (j *CollectJob) commit(ctx context.Context, name string) error {
	if ack, ok := j.source.(sources.Acknowledger); ok {
		if err := ack.Ack(ctx); err != nil {
			loggers.Ctx(ctx).Error().Err(err).Str(loggers.FieldErrorCode, svcerrors.CodeOf(err)).Msg("failed to acknowledge source")
			return err
		}
	}
	if !j.cursor.After(j.saved) {
		return nil
	}
	if err := j.cursorStore.Save(ctx, map[string]int64{name: j.cursor.UnixNano()}); err != nil {
		svcErr := errCursorFailed(name, err)
		loggers.Ctx(ctx).Error().Err(svcErr).Str(loggers.FieldErrorCode, svcErr.Code).Msg("failed to save source cursor")
		return svcErr
	}
	j.saved = j.cursor
	return nil
}

func (j *CollectJob) recordOutcome(source string, fetched int, result *aggregators.IngestResult) {
	metricCollectRecordsTotal.WithLabelValues(source, "fetched").Add(float64(fetched))
	metricCollectRecordsTotal.WithLabelValues(source, "accepted").Add(float64(result.Accepted))
	metricCollectRecordsTotal.WithLabelValues(source, "late").Add(float64(result.LateAccepted))
	metricCollectRecordsTotal.WithLabelValues(source, "deferred").Add(float64(result.Deferred))
	metricCollectRecordsTotal.WithLabelValues(source, "rejected").Add(float64(len(result.Rejected)))
}

// sendNotices is best effort; a failed notice is logged and dropped.
func (j *CollectJob) sendNotices(ctx context.Context, notices []events.ConnectionNotice) {
	for _, notice := range notices {
		text := reports.FormatNotice(notice, j.opts.Tag)
		if text == "" {
			continue
		}
		if err := j.notifier.SendMessage(ctx, text); err != nil {
			code := svcerrors.CodeOf(err)
			metricNoticesSentTotal.WithLabelValues(string(notice.Kind), code).Inc()
			loggers.Ctx(ctx).Warn().Err(err).
				Str(loggers.FieldUsername, notice.Username).
				Str("notice", string(notice.Kind)).
				Msg("failed to send connection notice")
			continue
		}
		metricNoticesSentTotal.WithLabelValues(string(notice.Kind), metrics.ValueNoError).Inc()
	}
}

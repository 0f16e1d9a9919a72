package jobs

import (
	"context"
	"sync"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/reports"
	"ocstat/internal/rollovers"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/svcerrors"
	"ocstat/internal/stores"
)

// ReportJob delivers the open window of one kind as it stands when the job
// fires. It only reads the accumulators.
type ReportJob struct {
	reader    reports.SnapshotReader
	generator reports.Generator
	deliverer reports.Deliverer
	kind      models.WindowKind
}

func NewReportJob(reader reports.SnapshotReader, generator reports.Generator, deliverer reports.Deliverer, kind models.WindowKind) *ReportJob {
	return &ReportJob{reader: reader, generator: generator, deliverer: deliverer, kind: kind}
}

func (j *ReportJob) Run(ctx context.Context) error {
	report := j.generator.Build(j.reader, j.kind)
	result, err := j.deliverer.Deliver(ctx, report)
	if err != nil {
		return errReportFailed(j.kind, err)
	}
	loggers.Ctx(ctx).Info().
		Str(loggers.FieldWindow, string(j.kind)).
		Bool("sent", result.Sent).
		Bool("skipped_empty", result.SkippedEmpty).
		Msg("report job finished")
	return nil
}

// ClosedWindowReportJob delivers the most recently closed window of one kind,
// once. A failed delivery is retried on the next fire. The delivered mark is
// kept in marks, so a restart neither repeats nor skips the report.
type ClosedWindowReportJob struct {
	rollover  rollovers.Manager
	generator reports.Generator
	deliverer reports.Deliverer
	marks     stores.SourceOffsetStore
	kind      models.WindowKind

	mu        sync.Mutex
	delivered time.Time
	loaded    bool
}

func NewClosedWindowReportJob(rollover rollovers.Manager, generator reports.Generator, deliverer reports.Deliverer, marks stores.SourceOffsetStore, kind models.WindowKind) *ClosedWindowReportJob {
	return &ClosedWindowReportJob{rollover: rollover, generator: generator, deliverer: deliverer, marks: marks, kind: kind}
}

func (j *ClosedWindowReportJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	snapshot, ok := j.rollover.LastClosed(j.kind)
	if !ok {
		return nil
	}
	if err := j.loadMark(ctx); err != nil {
		return err
	}
	if !snapshot.WindowStart.After(j.delivered) {
		return nil
	}

	report := j.generator.BuildSnapshot(snapshot)
	if _, err := j.deliverer.Deliver(ctx, report); err != nil {
		return errReportFailed(j.kind, err)
	}
	j.delivered = snapshot.WindowStart
	logger := loggers.Ctx(ctx)
	logger.Info().
		Str(loggers.FieldWindow, string(j.kind)).
		Time(loggers.FieldWindowStart, snapshot.WindowStart).
		Msg("closed window report delivered")

	if err := j.saveMark(ctx); err != nil {
		// The report went out; a restart before the next save sends it again.
		logger.Error().Err(err).
			Str(loggers.FieldErrorCode, err.Code).
			Str(loggers.FieldWindow, string(j.kind)).
			Time(loggers.FieldWindowStart, snapshot.WindowStart).
			Msg("failed to save report mark")
	}
	return nil
}

func (j *ClosedWindowReportJob) loadMark(ctx context.Context) error {
	if j.loaded {
		return nil
	}
	marks, err := j.marks.Load(ctx)
	if err != nil {
		return errReportMarkFailed(j.kind, err)
	}
	if nanos, ok := marks[string(j.kind)]; ok {
		j.delivered = time.Unix(0, nanos).UTC()
	}
	j.loaded = true
	return nil
}

func (j *ClosedWindowReportJob) saveMark(ctx context.Context) *svcerrors.ServiceError {
	marks, err := j.marks.Load(ctx)
	if err != nil {
		return errReportMarkFailed(j.kind, err)
	}
	marks[string(j.kind)] = j.delivered.UnixNano()
	if err := j.marks.Save(ctx, marks); err != nil {
		return errReportMarkFailed(j.kind, err)
	}
	return nil
}

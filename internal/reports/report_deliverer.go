package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/notifiers"
	"ocstat/internal/shared/filestorages"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/svcerrors"

	"github.com/coder/quartz"
)

type DelivererOptions struct {
	Tag string
	// SendEmpty delivers reports of windows without any activity.
	SendEmpty bool
	// Archive keeps every rendered image under reports/<kind>/<window>.png.
	Archive bool
}

type DeliveryResult struct {
	WindowKind  models.WindowKind
	WindowStart time.Time
	Caption     string
	Sent        bool
	// SkippedEmpty is set when nothing was sent because the window was empty.
	SkippedEmpty bool
	ArchiveKey   string
}

//go:generate mockgen -source=report_deliverer.go -destination=./mocks/report_deliverer_mock.go -package=mocks
type Deliverer interface {
	// Deliver renders and sends report. A failure discards the report and
	// leaves every accumulator as it was.
	Deliver(ctx context.Context, report *models.Report) (*DeliveryResult, error)
}

type deliverer struct {
	renderer ChartRenderer
	notifier notifiers.Notifier
	storage  filestorages.FileStorage
	clock    quartz.Clock
	opts     DelivererOptions
}

func NewDeliverer(renderer ChartRenderer, notifier notifiers.Notifier, storage filestorages.FileStorage, clock quartz.Clock, opts DelivererOptions) Deliverer {
	return &deliverer{
		renderer: renderer,
		notifier: notifier,
		storage:  storage,
		clock:    clock,
		opts:     opts,
	}
}

func (d *deliverer) Deliver(ctx context.Context, report *models.Report) (*DeliveryResult, error) {
	kind := report.WindowKind
	result := &DeliveryResult{WindowKind: kind, WindowStart: report.WindowStart}
	logger := loggers.Ctx(ctx).With().
		Str(loggers.FieldWindow, string(kind)).
		Time(loggers.FieldWindowStart, report.WindowStart).
		Logger()

	if report.IsEmpty() && !d.opts.SendEmpty {
		result.SkippedEmpty = true
		metricReportsTotal.WithLabelValues(string(kind), outcomeSkipped, metrics.ValueNoError).Inc()
		logger.Info().Msg("report skipped, window has no activity")
		return result, nil
	}

	image, err := d.renderer.Render(ctx, report)
	if err != nil {
		return nil, d.fail(&logger, kind, errRenderFailed(kind, err))
	}

	if d.opts.Archive && d.storage != nil {
		key, err := d.archive(ctx, report, image)
		if err != nil {
			svcErr := errArchiveFailed(key, err)
			logger.Warn().Err(svcErr).Str(loggers.FieldErrorCode, svcErr.Code).Msg("failed to archive report image")
		} else {
			result.ArchiveKey = key
		}
	}

	result.Caption = Caption(report, d.opts.Tag, d.clock.Now())
	if err := d.notifier.SendPhoto(ctx, image, result.Caption); err != nil {
		return nil, d.fail(&logger, kind, errDeliveryFailed(kind, err))
	}

	result.Sent = true
	metricReportsTotal.WithLabelValues(string(kind), outcomeSent, metrics.ValueNoError).Inc()
	logger.Info().
		Int("users", len(report.Rows)).
		Int64("outgoing_bytes", report.Totals.OutgoingBytes).
		Int64("incoming_bytes", report.Totals.IncomingBytes).
		Msg("report delivered")
	return result, nil
}

func (d *deliverer) archive(ctx context.Context, report *models.Report, image *models.ImageBlob) (string, error) {
	key := fmt.Sprintf("reports/%s/%s.png", report.WindowKind, report.WindowKind.FormatWindowStart(report.WindowStart))
	_, err := d.storage.Put(ctx, key, bytes.NewReader(image.Data), filestorages.PutOptions{AllowOverwrite: true})
	return key, err
}

func (d *deliverer) fail(logger *loggers.Logger, kind models.WindowKind, svcErr *svcerrors.ServiceError) error {
	metricReportsTotal.WithLabelValues(string(kind), outcomeFailed, svcErr.Code).Inc()
	logger.Error().Err(svcErr).Str(loggers.FieldErrorCode, svcErr.Code).Msg("report delivery failed")
	return svcErr
}

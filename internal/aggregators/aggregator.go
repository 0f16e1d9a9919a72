package aggregators

import (
	"context"
	"fmt"
	"time"

	"ocstat/internal/events"
	"ocstat/internal/models"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/svcerrors"
	"ocstat/internal/stores"

	"github.com/coder/quartz"
)

// KnownIPRegistry remembers which addresses each user has connected from.
//
//go:generate mockgen -source=aggregator.go -destination=./mocks/aggregator_mock.go -package=mocks
type KnownIPRegistry interface {
	HasKnownIP(ctx context.Context, username, ip string) (bool, error)
	RememberIP(ctx context.Context, username, ip string) error
}

// Aggregator applies session records to the accumulator store.
type Aggregator interface {
	// Ingest validates and applies records. One bad record never fails the batch;
	// it is reported in IngestResult.Rejected instead.
	Ingest(ctx context.Context, records []models.SessionRecord) *IngestResult
	// Replay moves deferred days into the windows that now hold them. It must
	// be called inside the store transaction that performed the reset, and
	// returns the number of user accumulators applied.
	Replay(ctx context.Context, tx *stores.StoreTx) int
}

type RejectedRecord struct {
	Index    int
	Username string
	Err      *svcerrors.ServiceError
}

type IngestResult struct {
	// Accepted counts disconnects added to the open daily window.
	Accepted int
	// LateAccepted counts disconnects from a closed day of the open month.
	LateAccepted int
	// Deferred counts disconnects held for a day that has not started yet.
	Deferred int
	Connects int
	Rejected []RejectedRecord
	Notices  []events.ConnectionNotice
	// LatestTimestamp is the newest record timestamp seen, valid or not.
	LatestTimestamp time.Time
}

// MaxClockSkew is how far past the local clock a record may be stamped.
// Anything later is rejected, so a deferred day is at most the next one.
const MaxClockSkew = 15 * time.Minute

type Options struct {
	UsernameSeparator string
	NotifyNewIPs      bool
	NotifyDisconnects bool
}

type aggregator struct {
	store     *stores.AccumulatorStore
	rolluper  UsageRolluper
	registry  KnownIPRegistry
	validator *SessionValidator
	clock     quartz.Clock
	opts      Options
}

func NewAggregator(store *stores.AccumulatorStore, rolluper UsageRolluper, registry KnownIPRegistry, clock quartz.Clock, opts Options) Aggregator {
	return &aggregator{
		store:     store,
		rolluper:  rolluper,
		registry:  registry,
		validator: NewSessionValidator(opts.UsernameSeparator),
		clock:     clock,
		opts:      opts,
	}
}

type pendingUsage struct {
	index  int
	usage  models.SessionUsage
	record models.SessionRecord
}

type placement int

const (
	placedDaily placement = iota
	placedMonthly
	placedDeferred
)

func (a *aggregator) Ingest(ctx context.Context, records []models.SessionRecord) *IngestResult {
	logger := loggers.Ctx(ctx)
	result := &IngestResult{}
	receivedAt := a.clock.Now().In(a.store.Location())

	// Validation and registry lookups happen outside the store lock.
	var usages []pendingUsage
	for i, rec := range records {
		if rec.Timestamp.After(result.LatestTimestamp) {
			result.LatestTimestamp = rec.Timestamp
		}

		switch rec.EventKind {
		case models.EventConnect:
			if err := a.validator.ValidateConnect(rec); err != nil {
				a.reject(ctx, result, i, rec.Username, errInvalidSessionRecord(err))
				continue
			}
			result.Connects++
			metricSessionRecordsTotal.WithLabelValues(outcomeConnect, metrics.ValueNoError).Inc()
			a.trackConnect(ctx, result, rec, receivedAt)

		case models.EventDisconnect:
			usage, err := a.validator.ValidateDisconnect(rec, receivedAt)
			if err != nil {
				a.reject(ctx, result, i, rec.Username, errInvalidSessionRecord(err))
				continue
			}
			usage.Timestamp = usage.Timestamp.In(a.store.Location())
			if limit := receivedAt.Add(MaxClockSkew); usage.Timestamp.After(limit) {
				a.reject(ctx, result, i, rec.Username, errFutureSessionRecord(fmt.Errorf("timestamp %v is after %v", usage.Timestamp, limit)))
				continue
			}
			usages = append(usages, pendingUsage{index: i, usage: usage, record: rec})

		default:
			a.reject(ctx, result, i, rec.Username, errInvalidSessionRecord(fmt.Errorf("eventKind: unknown %q", rec.EventKind)))
		}
	}

	if len(usages) == 0 {
		return result
	}

	_ = a.store.Tx(func(tx *stores.StoreTx) error {
		for _, p := range usages {
			where, svcErr := a.place(tx, p.usage)
			if svcErr != nil {
				a.reject(ctx, result, p.index, p.usage.Username, svcErr)
				continue
			}
			switch where {
			case placedDaily:
				result.Accepted++
				metricSessionRecordsTotal.WithLabelValues(outcomeAccepted, metrics.ValueNoError).Inc()
			case placedMonthly:
				result.LateAccepted++
				metricSessionRecordsTotal.WithLabelValues(outcomeLate, metrics.ValueNoError).Inc()
				logger.Info().
					Str(loggers.FieldUsername, p.usage.Username).
					Time("timestamp", p.usage.Timestamp).
					Msg("late session record applied to monthly window only")
			case placedDeferred:
				result.Deferred++
				metricSessionRecordsTotal.WithLabelValues(outcomeDeferred, metrics.ValueNoError).Inc()
			}
			if a.opts.NotifyDisconnects {
				result.Notices = append(result.Notices, events.ConnectionNotice{
					Kind:      events.NoticeDisconnect,
					Username:  p.usage.Username,
					Reason:    p.record.Reason,
					IPReal:    p.record.IPReal,
					IPRemote:  p.record.IPRemote,
					Usage:     p.usage,
					Timestamp: p.usage.Timestamp,
				})
			}
		}
		return nil
	})

	logger.Debug().
		Int("accepted", result.Accepted).
		Int("late_accepted", result.LateAccepted).
		Int("deferred", result.Deferred).
		Int("rejected", len(result.Rejected)).
		Msg("ingested session records")
	return result
}

func (a *aggregator) Replay(ctx context.Context, tx *stores.StoreTx) int {
	logger := loggers.Ctx(ctx)
	dailyStart := tx.WindowStart(models.WindowDaily)
	monthlyStart := tx.WindowStart(models.WindowMonthly)

	applied := 0
	for _, window := range tx.TakeDeferred() {
		for _, name := range window.Usernames() {
			acc := window.Accumulators[name]
			var err error
			placed := true
			switch {
			case window.WindowStart.After(dailyStart):
				err = a.rolluper.Merge(tx.Deferred(window.WindowStart, name), acc)
				placed = false
			case window.WindowStart.Equal(dailyStart):
				err = a.rolluper.Merge(tx.Accumulator(models.WindowDaily, name), acc)
			case models.WindowMonthly.Contains(monthlyStart, window.WindowStart):
				err = a.rolluper.Fold(tx.Accumulator(models.WindowMonthly, name), acc)
			default:
				err = errStaleSessionRecord(fmt.Errorf("deferred day %v precedes monthly window %v", window.WindowStart, monthlyStart))
			}
			if err == nil {
				if placed {
					applied++
				}
				continue
			}
			svcErr, ok := svcerrors.AsServiceError(err)
			if !ok {
				svcErr = errInternalUsageRollupFailed(err)
			}
			logger.Warn().
				Err(svcErr).
				Str(loggers.FieldErrorCode, svcErr.Code).
				Str(loggers.FieldUsername, name).
				Time(loggers.FieldWindowStart, window.WindowStart).
				Msg("dropped deferred session usage")
		}
	}
	return applied
}

// place attributes usage by its own timestamp: the open day takes it, an
// earlier day of the open month goes to monthly only, a future day waits.
func (a *aggregator) place(tx *stores.StoreTx, usage models.SessionUsage) (placement, *svcerrors.ServiceError) {
	dailyStart := tx.WindowStart(models.WindowDaily)
	monthlyStart := tx.WindowStart(models.WindowMonthly)
	ts := usage.Timestamp

	var kind models.WindowKind
	var where placement
	switch {
	case !ts.Before(models.WindowDaily.Next(dailyStart)):
		if err := a.rolluper.Rollup(tx.Deferred(models.WindowDaily.Start(ts), usage.Username), usage); err != nil {
			return 0, errInternalUsageRollupFailed(err)
		}
		return placedDeferred, nil
	case !ts.Before(dailyStart):
		kind, where = models.WindowDaily, placedDaily
	case models.WindowMonthly.Contains(monthlyStart, ts):
		kind, where = models.WindowMonthly, placedMonthly
	default:
		return 0, errStaleSessionRecord(fmt.Errorf("timestamp %v precedes monthly window %v", ts, monthlyStart))
	}

	acc := tx.Accumulator(kind, usage.Username)
	created := acc.IsZero()
	if err := a.rolluper.Rollup(acc, usage); err != nil {
		return 0, errInternalUsageRollupFailed(err)
	}
	if created {
		metricAccumulatorCreatedTotal.WithLabelValues(string(kind), kind.BucketID(acc.WindowStart)).Inc()
	}
	return where, nil
}

func (a *aggregator) trackConnect(ctx context.Context, result *IngestResult, rec models.SessionRecord, receivedAt time.Time) {
	if !a.opts.NotifyNewIPs || rec.IPReal == "" || a.registry == nil {
		return
	}
	logger := loggers.Ctx(ctx)
	username := a.validator.Username(rec)

	known, err := a.registry.HasKnownIP(ctx, username, rec.IPReal)
	if err != nil {
		svcErr := errInternalKnownIPLookup(err)
		metricKnownIPLookupFailedTotal.WithLabelValues(svcErr.Code).Inc()
		logger.Error().Err(err).Str(loggers.FieldErrorCode, svcErr.Code).Str(loggers.FieldUsername, username).Msg("known ip lookup failed")
		return
	}
	if known {
		return
	}
	if err := a.registry.RememberIP(ctx, username, rec.IPReal); err != nil {
		svcErr := errInternalKnownIPLookup(err)
		metricKnownIPLookupFailedTotal.WithLabelValues(svcErr.Code).Inc()
		logger.Error().Err(err).Str(loggers.FieldErrorCode, svcErr.Code).Str(loggers.FieldUsername, username).Msg("failed to remember ip")
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = receivedAt
	}
	result.Notices = append(result.Notices, events.ConnectionNotice{
		Kind:      events.NoticeNewIP,
		Username:  username,
		Reason:    rec.Reason,
		IPReal:    rec.IPReal,
		IPRemote:  rec.IPRemote,
		Timestamp: ts,
	})
}

func (a *aggregator) reject(ctx context.Context, result *IngestResult, index int, username string, svcErr *svcerrors.ServiceError) {
	result.Rejected = append(result.Rejected, RejectedRecord{Index: index, Username: username, Err: svcErr})
	metricSessionRecordsTotal.WithLabelValues(outcomeRejected, svcErr.Code).Inc()
	loggers.Ctx(ctx).Warn().
		Err(svcErr).
		Str(loggers.FieldErrorCode, svcErr.Code).
		Str(loggers.FieldUsername, username).
		Int(loggers.FieldRecordIndex, index).
		Msg("rejected session record")
}

package rollovers

import (
	"context"
	"sort"
	"sync"
	"time"

	"ocstat/internal/aggregators"
	"ocstat/internal/events"
	"ocstat/internal/models"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/svcerrors"
	"ocstat/internal/stores"
)

// Replayer moves usage that arrived before its day opened into the windows
// that now hold it.
type Replayer interface {
	Replay(ctx context.Context, tx *stores.StoreTx) int
}

//go:generate mockgen -source=rollover_manager.go -destination=./mocks/rollover_manager_mock.go -package=mocks
type Manager interface {
	// CheckBoundaries closes every window whose period has ended at now.
	// Daily closes first and folds into monthly; monthly is only examined
	// once the daily step succeeded. Events are returned for the windows that
	// closed even when a later step fails.
	CheckBoundaries(ctx context.Context, now time.Time) ([]events.RolloverEvent, error)
	// Checkpoint writes the open windows and the deferred days so a restart
	// can pick them up.
	Checkpoint(ctx context.Context) error
	// Restore reopens the windows that were open when the snapshots were
	// written, even when now lies past them. The next CheckBoundaries closes
	// them as if the process had never stopped.
	Restore(ctx context.Context, now time.Time) error
	// LastClosed returns the most recent closed window of kind, either closed
	// by this process or found closed by Restore.
	LastClosed(kind models.WindowKind) (models.WindowSnapshot, bool)
}

type manager struct {
	store     *stores.AccumulatorStore
	snapshots stores.SnapshotStore
	rolluper  aggregators.UsageRolluper
	replayer  Replayer

	mu         sync.RWMutex
	lastClosed map[models.WindowKind]models.WindowSnapshot
}

func NewManager(store *stores.AccumulatorStore, snapshots stores.SnapshotStore, rolluper aggregators.UsageRolluper, replayer Replayer) Manager {
	return &manager{
		store:      store,
		snapshots:  snapshots,
		rolluper:   rolluper,
		replayer:   replayer,
		lastClosed: make(map[models.WindowKind]models.WindowSnapshot),
	}
}

func (m *manager) CheckBoundaries(ctx context.Context, now time.Time) ([]events.RolloverEvent, error) {
	now = now.In(m.store.Location())
	var out []events.RolloverEvent

	err := m.store.Tx(func(tx *stores.StoreTx) error {
		defer func() {
			if len(out) > 0 && m.replayer != nil {
				m.replayer.Replay(ctx, tx)
			}
		}()

		// A monthly close that failed after its daily fold leaves the monthly
		// window behind the daily one; finish it before folding another day.
		if dailyStart := tx.WindowStart(models.WindowDaily); !models.WindowMonthly.Contains(tx.WindowStart(models.WindowMonthly), dailyStart) {
			ev, err := m.rollMonthly(ctx, tx, dailyStart, now)
			if err != nil {
				return err
			}
			out = appendEvent(out, ev)
		}

		ev, err := m.rollDaily(ctx, tx, now)
		if err != nil {
			return err
		}
		out = appendEvent(out, ev)

		ev, err = m.rollMonthly(ctx, tx, now, now)
		if err != nil {
			return err
		}
		out = appendEvent(out, ev)
		return nil
	})

	for _, ev := range out {
		m.remember(ev.Snapshot)
	}
	return out, err
}

func (m *manager) rollDaily(ctx context.Context, tx *stores.StoreTx, now time.Time) (*events.RolloverEvent, error) {
	newStart := models.WindowDaily.Start(now)
	if !newStart.After(tx.WindowStart(models.WindowDaily)) {
		return nil, nil
	}
	started := time.Now()

	closing := tx.Snapshot(models.WindowDaily)
	candidate := tx.Snapshot(models.WindowMonthly)
	for _, name := range closing.Usernames() {
		acc, ok := candidate.Accumulators[name]
		if !ok {
			acc = *models.NewEmptyAccumulator(models.WindowMonthly, candidate.WindowStart)
		}
		if err := m.rolluper.Fold(&acc, closing.Accumulators[name]); err != nil {
			svcErr := errFoldFailed(name, err)
			m.logFailure(ctx, models.WindowDaily, closing.WindowStart, svcErr)
			return nil, svcErr
		}
		candidate.Accumulators[name] = acc
	}

	if err := m.persist(ctx, markClosed(closing)); err != nil {
		m.logFailure(ctx, models.WindowDaily, closing.WindowStart, err)
		return nil, err
	}

	// Commit: nothing below can fail.
	tx.Replace(candidate)
	tx.Reset(models.WindowDaily, newStart)

	// Until the folded month is written, a restart folds the closed day again
	// from its own snapshot.
	if err := m.persist(ctx, candidate); err != nil {
		loggers.Ctx(ctx).Error().
			Err(err).
			Str(loggers.FieldErrorCode, err.Code).
			Str(loggers.FieldWindow, string(models.WindowMonthly)).
			Time(loggers.FieldWindowStart, candidate.WindowStart).
			Time("folded_day", closing.WindowStart).
			Msg("monthly checkpoint after daily close failed, daily close kept")
	}

	return m.closed(ctx, closing, newStart, now, started), nil
}

// rollMonthly closes the monthly window when target lies in a later month.
func (m *manager) rollMonthly(ctx context.Context, tx *stores.StoreTx, target, now time.Time) (*events.RolloverEvent, error) {
	newStart := models.WindowMonthly.Start(target)
	if !newStart.After(tx.WindowStart(models.WindowMonthly)) {
		return nil, nil
	}
	started := time.Now()

	closing := tx.Snapshot(models.WindowMonthly)
	if err := m.persist(ctx, markClosed(closing)); err != nil {
		m.logFailure(ctx, models.WindowMonthly, closing.WindowStart, err)
		return nil, err
	}

	tx.Reset(models.WindowMonthly, newStart)

	return m.closed(ctx, closing, newStart, now, started), nil
}

// persist writes every accumulator of snapshot. Writes are upserts, so a
// retry after a partial failure rewrites the same rows.
func (m *manager) persist(ctx context.Context, snapshot models.WindowSnapshot) *svcerrors.ServiceError {
	for _, name := range snapshot.Usernames() {
		if err := m.snapshots.WriteSnapshot(ctx, snapshot.WindowKind, name, snapshot.Accumulators[name]); err != nil {
			svcErr := errPersistenceFailed(snapshot.WindowKind, name, err)
			metricSnapshotWritesTotal.WithLabelValues(string(snapshot.WindowKind), svcErr.Code).Inc()
			return svcErr
		}
		metricSnapshotWritesTotal.WithLabelValues(string(snapshot.WindowKind), metrics.ValueNoError).Inc()
	}
	return nil
}

func (m *manager) closed(ctx context.Context, snapshot models.WindowSnapshot, newStart, now, started time.Time) *events.RolloverEvent {
	kind := snapshot.WindowKind
	metricRolloversTotal.WithLabelValues(string(kind), metrics.ValueNoError).Inc()
	metricRolloverDurationSeconds.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
	loggers.Ctx(ctx).Info().
		Str(loggers.FieldWindow, string(kind)).
		Time(loggers.FieldWindowStart, snapshot.WindowStart).
		Time("new_window_start", newStart).
		Int("users", len(snapshot.Accumulators)).
		Msg("window closed")

	return &events.RolloverEvent{
		WindowKind:        kind,
		ClosedWindowStart: snapshot.WindowStart,
		NewWindowStart:    newStart,
		RolledAt:          now,
		Snapshot:          snapshot,
	}
}

func (m *manager) logFailure(ctx context.Context, kind models.WindowKind, windowStart time.Time, svcErr *svcerrors.ServiceError) {
	metricRolloversTotal.WithLabelValues(string(kind), svcErr.Code).Inc()
	loggers.Ctx(ctx).Error().
		Err(svcErr).
		Str(loggers.FieldErrorCode, svcErr.Code).
		Str(loggers.FieldWindow, string(kind)).
		Time(loggers.FieldWindowStart, windowStart).
		Msg("rollover failed, window kept open")
}

func (m *manager) Checkpoint(ctx context.Context) error {
	var windows []models.WindowSnapshot
	_ = m.store.Tx(func(tx *stores.StoreTx) error {
		for _, kind := range models.WindowKinds {
			windows = append(windows, tx.Snapshot(kind))
		}
		// Deferred days are written as daily snapshots of their own start.
		windows = append(windows, tx.DeferredSnapshots()...)
		return nil
	})

	for _, window := range windows {
		if err := m.persist(ctx, window); err != nil {
			return err
		}
	}
	return nil
}

// Restore picks the open month and the open day from what was persisted:
//   - the open month is the latest month with a snapshot not marked closed,
//     or the month after the latest closed one;
//   - closed days of that month are folded into it unless FoldedThrough
//     shows the fold was already written;
//   - the earliest day not marked closed is the open day, and unclosed days
//     after it are deferred.
func (m *manager) Restore(ctx context.Context, now time.Time) error {
	loc := m.store.Location()
	now = now.In(loc)
	dayStart := models.WindowDaily.Start(now)
	monthStart := models.WindowMonthly.Start(now)

	monthly, err := m.snapshots.ListSnapshots(ctx, models.WindowMonthly, time.Time{}, models.WindowMonthly.Next(monthStart))
	if err != nil {
		return errRestoreFailed(err)
	}
	months := groupByStart(models.WindowMonthly, monthly, loc)

	var month models.WindowSnapshot
	var lastMonth, lastDay *models.WindowSnapshot
	// Without any monthly snapshot the previous month may still be open.
	from := models.WindowMonthly.Start(monthStart.Add(-time.Nanosecond))
	if n := len(months); n > 0 {
		if latest := months[n-1]; isClosed(latest) {
			lastMonth = &months[n-1]
			month = emptyWindow(models.WindowMonthly, models.WindowMonthly.Next(latest.WindowStart))
		} else {
			month = reopen(latest)
			if n > 1 && isClosed(months[n-2]) {
				lastMonth = &months[n-2]
			}
		}
		from = month.WindowStart
	}

	daily, err := m.snapshots.ListSnapshots(ctx, models.WindowDaily, from, models.WindowDaily.Next(models.WindowDaily.Next(dayStart)))
	if err != nil {
		return errRestoreFailed(err)
	}
	days := groupByStart(models.WindowDaily, daily, loc)
	if len(months) == 0 {
		month = emptyWindow(models.WindowMonthly, monthStart)
		if len(days) > 0 && days[0].WindowStart.Before(monthStart) {
			month.WindowStart = models.WindowMonthly.Start(days[0].WindowStart)
		}
	}

	today := emptyWindow(models.WindowDaily, dayStart)
	var deferred []models.WindowSnapshot
	folded, open := 0, false
	for i, day := range days {
		if day.WindowStart.Before(month.WindowStart) {
			continue
		}
		closed := isClosed(day)
		switch {
		case !open && closed:
			n, err := m.foldMissing(month, day)
			if err != nil {
				return errRestoreFailed(err)
			}
			folded += n
			lastDay = &days[i]
		case !open && !day.WindowStart.After(dayStart):
			today = reopen(day)
			open = true
		default:
			deferred = append(deferred, reopen(day))
		}
	}

	_ = m.store.Tx(func(tx *stores.StoreTx) error {
		tx.Replace(today)
		tx.Replace(month)
		tx.TakeDeferred()
		for _, window := range deferred {
			for name, acc := range window.Accumulators {
				*tx.Deferred(window.WindowStart, name) = acc
			}
		}
		return nil
	})
	if lastMonth != nil {
		m.remember(*lastMonth)
	}
	if lastDay != nil {
		m.remember(*lastDay)
	}

	loggers.Ctx(ctx).Info().
		Time("daily_window_start", today.WindowStart).
		Int("daily_users", len(today.Accumulators)).
		Time("monthly_window_start", month.WindowStart).
		Int("monthly_users", len(month.Accumulators)).
		Int("days_folded", folded).
		Int("deferred_days", len(deferred)).
		Msg("restored open windows")
	return nil
}

// foldMissing folds the users of a closed day whose fold never reached the
// persisted month. It returns how many were folded.
func (m *manager) foldMissing(month, day models.WindowSnapshot) (int, error) {
	if !models.WindowMonthly.Contains(month.WindowStart, day.WindowStart) {
		return 0, nil
	}
	n := 0
	for _, name := range day.Usernames() {
		target, ok := month.Accumulators[name]
		if !ok {
			target = *models.NewEmptyAccumulator(models.WindowMonthly, month.WindowStart)
		}
		if !target.FoldedThrough.Before(day.WindowStart) {
			continue
		}
		if err := m.rolluper.Fold(&target, day.Accumulators[name]); err != nil {
			return n, err
		}
		month.Accumulators[name] = target
		n++
	}
	return n, nil
}

func (m *manager) LastClosed(kind models.WindowKind) (models.WindowSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.lastClosed[kind]
	if !ok {
		return models.WindowSnapshot{}, false
	}
	return snap.Clone(), true
}

func (m *manager) remember(snapshot models.WindowSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastClosed[snapshot.WindowKind] = snapshot.Clone()
}

func appendEvent(out []events.RolloverEvent, ev *events.RolloverEvent) []events.RolloverEvent {
	if ev == nil {
		return out
	}
	return append(out, *ev)
}

// groupByStart turns persisted records into one snapshot per window start,
// oldest first.
func groupByStart(kind models.WindowKind, records []models.SnapshotRecord, loc *time.Location) []models.WindowSnapshot {
	byStart := make(map[int64]*models.WindowSnapshot)
	for _, rec := range records {
		acc := rec.Accumulator
		acc.WindowKind = kind
		acc.WindowStart = acc.WindowStart.In(loc)
		key := acc.WindowStart.UnixNano()
		window, ok := byStart[key]
		if !ok {
			window = &models.WindowSnapshot{WindowKind: kind, WindowStart: acc.WindowStart, Accumulators: map[string]models.Accumulator{}}
			byStart[key] = window
		}
		window.Accumulators[rec.Username] = acc
	}

	out := make([]models.WindowSnapshot, 0, len(byStart))
	for _, window := range byStart {
		out = append(out, *window)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowStart.Before(out[j].WindowStart) })
	return out
}

// isClosed reports whether every accumulator of window was written at close.
// A partly written close counts as open, so the rollover runs again.
func isClosed(window models.WindowSnapshot) bool {
	for _, acc := range window.Accumulators {
		if !acc.Closed {
			return false
		}
	}
	return len(window.Accumulators) > 0
}

func markClosed(window models.WindowSnapshot) models.WindowSnapshot {
	out := window.Clone()
	for name, acc := range out.Accumulators {
		acc.Closed = true
		out.Accumulators[name] = acc
	}
	return out
}

func reopen(window models.WindowSnapshot) models.WindowSnapshot {
	out := window.Clone()
	for name, acc := range out.Accumulators {
		acc.Closed = false
		out.Accumulators[name] = acc
	}
	return out
}

func emptyWindow(kind models.WindowKind, start time.Time) models.WindowSnapshot {
	return models.WindowSnapshot{WindowKind: kind, WindowStart: start, Accumulators: map[string]models.Accumulator{}}
}

package rollovers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ocstat/internal/aggregators"
	"ocstat/internal/models"
	"ocstat/internal/shared/filestorages"
	"ocstat/internal/stores"
	"ocstat/internal/stores/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type countingReplayer struct {
	calls int
}

func (r *countingReplayer) Replay(ctx context.Context, tx *stores.StoreTx) int {
	r.calls++
	return len(tx.TakeDeferred())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, store *stores.AccumulatorStore, kind models.WindowKind, username string, in, out int64) {
	t.Helper()
	require.NoError(t, store.Tx(func(tx *stores.StoreTx) error {
		acc := tx.Accumulator(kind, username)
		acc.IncomingBytes += in
		acc.OutgoingBytes += out
		acc.ConnectionCount++
		acc.TotalDurationSeconds += 10
		return nil
	}))
}

func TestManager_CheckBoundaries_NoBoundary(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 28).Add(9 * time.Hour))
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)

	evs, err := manager.CheckBoundaries(context.Background(), day(2025, 12, 28).Add(23*time.Hour+59*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestManager_CheckBoundaries_DailyRollover(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 28).Add(9 * time.Hour))
	seed(t, store, models.WindowDaily, "alice", 100, 200)
	seed(t, store, models.WindowDaily, "bob", 1, 2)
	seed(t, store, models.WindowMonthly, "alice", 1000, 2000)

	snapshots := mocks.NewMockSnapshotStore(ctrl)
	replayer := &countingReplayer{}
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), replayer)
	ctx := context.Background()

	// Closing daily window first, then the folded month checkpoint.
	gomock.InOrder(
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "alice", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.WindowKind, _ string, acc models.Accumulator) error {
				assert.Equal(t, int64(100), acc.IncomingBytes)
				assert.Equal(t, day(2025, 12, 28), acc.WindowStart)
				return nil
			}),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "bob", gomock.Any()).Return(nil),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "alice", gomock.Any()).Return(nil),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "bob", gomock.Any()).Return(nil),
	)

	now := day(2025, 12, 29).Add(5 * time.Second)
	evs, err := manager.CheckBoundaries(ctx, now)
	require.NoError(t, err)
	require.Len(t, evs, 1)

	ev := evs[0]
	assert.Equal(t, models.WindowDaily, ev.WindowKind)
	assert.Equal(t, day(2025, 12, 28), ev.ClosedWindowStart)
	assert.Equal(t, day(2025, 12, 29), ev.NewWindowStart)
	assert.Equal(t, int64(100), ev.Snapshot.Accumulators["alice"].IncomingBytes)

	// Daily reset, monthly folded.
	assert.Equal(t, day(2025, 12, 29), store.WindowStart(models.WindowDaily))
	assert.Empty(t, store.Snapshot(models.WindowDaily).Accumulators)
	alice, _ := store.Get(models.WindowMonthly, "alice")
	assert.Equal(t, int64(1100), alice.IncomingBytes)
	assert.Equal(t, int64(2200), alice.OutgoingBytes)
	assert.Equal(t, int64(2), alice.ConnectionCount)
	bob, _ := store.Get(models.WindowMonthly, "bob")
	assert.Equal(t, int64(1), bob.IncomingBytes)

	assert.Equal(t, 1, replayer.calls)
	last, ok := manager.LastClosed(models.WindowDaily)
	require.True(t, ok)
	assert.Equal(t, day(2025, 12, 28), last.WindowStart)
	_, ok = manager.LastClosed(models.WindowMonthly)
	assert.False(t, ok)

	// A second check in the same day is a no-op.
	evs, err = manager.CheckBoundaries(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestManager_CheckBoundaries_PersistenceFailureKeepsWindow(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 28).Add(9 * time.Hour))
	seed(t, store, models.WindowDaily, "alice", 100, 200)

	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	ctx := context.Background()

	snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "alice", gomock.Any()).Return(errors.New("disk full"))

	evs, err := manager.CheckBoundaries(ctx, day(2025, 12, 29))
	require.Error(t, err)
	assert.Empty(t, evs)
	assert.Contains(t, err.Error(), "ROL_9000")

	// Nothing committed: daily still open with its data, monthly untouched.
	assert.Equal(t, day(2025, 12, 28), store.WindowStart(models.WindowDaily))
	alice, ok := store.Get(models.WindowDaily, "alice")
	require.True(t, ok)
	assert.Equal(t, int64(100), alice.IncomingBytes)
	_, ok = store.Get(models.WindowMonthly, "alice")
	assert.False(t, ok)

	// The retry succeeds and folds exactly once.
	snapshots.EXPECT().WriteSnapshot(ctx, gomock.Any(), "alice", gomock.Any()).Return(nil).Times(2)
	evs, err = manager.CheckBoundaries(ctx, day(2025, 12, 29).Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	monthly, _ := store.Get(models.WindowMonthly, "alice")
	assert.Equal(t, int64(100), monthly.IncomingBytes)
}

func TestManager_CheckBoundaries_MonthBoundary(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 31).Add(20 * time.Hour))
	seed(t, store, models.WindowDaily, "alice", 10, 20)
	seed(t, store, models.WindowMonthly, "alice", 1000, 2000)

	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	ctx := context.Background()

	var monthlyWrites []models.Accumulator
	snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "alice", gomock.Any()).Return(nil)
	snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "alice", gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, _ models.WindowKind, _ string, acc models.Accumulator) error {
			monthlyWrites = append(monthlyWrites, acc)
			return nil
		})

	evs, err := manager.CheckBoundaries(ctx, day(2026, 1, 1).Add(time.Second))
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, models.WindowDaily, evs[0].WindowKind)
	assert.Equal(t, models.WindowMonthly, evs[1].WindowKind)
	assert.Equal(t, day(2025, 12, 1), evs[1].ClosedWindowStart)
	assert.Equal(t, day(2026, 1, 1), evs[1].NewWindowStart)

	// The closed month includes the last day.
	assert.Equal(t, int64(1010), evs[1].Snapshot.Accumulators["alice"].IncomingBytes)
	require.Len(t, monthlyWrites, 2)
	assert.Equal(t, int64(1010), monthlyWrites[1].IncomingBytes)

	assert.Equal(t, day(2026, 1, 1), store.WindowStart(models.WindowMonthly))
	assert.Empty(t, store.Snapshot(models.WindowMonthly).Accumulators)

	last, ok := manager.LastClosed(models.WindowMonthly)
	require.True(t, ok)
	assert.Equal(t, day(2025, 12, 1), last.WindowStart)
}

func TestManager_CheckBoundaries_MonthlyFailureRetriedBeforeNextFold(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 31).Add(20 * time.Hour))
	seed(t, store, models.WindowDaily, "alice", 10, 20)

	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	ctx := context.Background()

	// Daily close and checkpoint succeed, the monthly close fails.
	gomock.InOrder(
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "alice", gomock.Any()).Return(nil),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "alice", gomock.Any()).Return(nil),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "alice", gomock.Any()).Return(errors.New("timeout")),
	)
	evs, err := manager.CheckBoundaries(ctx, day(2026, 1, 1).Add(time.Second))
	require.Error(t, err)
	require.Len(t, evs, 1, "the daily close still happened")
	assert.Equal(t, day(2025, 12, 1), store.WindowStart(models.WindowMonthly))

	// New activity on Jan 1, then the next day arrives.
	seed(t, store, models.WindowDaily, "alice", 5, 5)
	gomock.InOrder(
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "alice", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.WindowKind, _ string, acc models.Accumulator) error {
				assert.Equal(t, int64(10), acc.IncomingBytes, "december closes without january data")
				return nil
			}),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "alice", gomock.Any()).Return(nil),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "alice", gomock.Any()).Return(nil),
	)
	evs, err = manager.CheckBoundaries(ctx, day(2026, 1, 2).Add(time.Second))
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, models.WindowMonthly, evs[0].WindowKind)
	assert.Equal(t, models.WindowDaily, evs[1].WindowKind)

	jan, _ := store.Get(models.WindowMonthly, "alice")
	assert.Equal(t, int64(5), jan.IncomingBytes)
	assert.Equal(t, day(2026, 1, 1), jan.WindowStart)
}

func TestManager_CheckBoundaries_MonthlyCheckpointFailureLoggedAsError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := stores.NewAccumulatorStore(day(2025, 12, 28).Add(9 * time.Hour))
	seed(t, store, models.WindowDaily, "alice", 100, 200)

	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	gomock.InOrder(
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "alice", gomock.Any()).Return(nil),
		snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "alice", gomock.Any()).Return(errors.New("timeout")),
	)
	evs, err := manager.CheckBoundaries(ctx, day(2025, 12, 29).Add(time.Second))
	require.NoError(t, err, "the daily close is kept")
	require.Len(t, evs, 1)

	var found map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		if line["message"] == "monthly checkpoint after daily close failed, daily close kept" {
			found = line
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "error", found["level"])
	assert.Equal(t, "ROL_9000", found["error_code"])
	assert.Equal(t, "monthly", found["window"])
	assert.Equal(t, "2025-12-01T00:00:00Z", found["window_start"])
	assert.Equal(t, "2025-12-28T00:00:00Z", found["folded_day"])
}

func TestManager_CheckBoundaries_EmptyWindowStillRolls(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 28))
	manager := NewManager(store, mocks.NewMockSnapshotStore(ctrl), aggregators.NewUsageRolluper(), nil)

	evs, err := manager.CheckBoundaries(context.Background(), day(2025, 12, 30).Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, day(2025, 12, 30), store.WindowStart(models.WindowDaily))
	assert.Empty(t, evs[0].Snapshot.Accumulators)
}

func TestManager_Checkpoint(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 28).Add(23*time.Hour + 58*time.Minute))
	seed(t, store, models.WindowDaily, "alice", 1, 1)
	seed(t, store, models.WindowMonthly, "bob", 2, 2)
	require.NoError(t, store.Tx(func(tx *stores.StoreTx) error {
		tx.Deferred(day(2025, 12, 29), "carol").ConnectionCount++
		return nil
	}))

	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	ctx := context.Background()

	snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "alice", gomock.Any()).Return(nil)
	snapshots.EXPECT().WriteSnapshot(ctx, models.WindowMonthly, "bob", gomock.Any()).Return(nil)
	snapshots.EXPECT().WriteSnapshot(ctx, models.WindowDaily, "carol", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.WindowKind, _ string, acc models.Accumulator) error {
			assert.Equal(t, day(2025, 12, 29), acc.WindowStart, "a deferred day is written under its own start")
			assert.False(t, acc.Closed)
			return nil
		})

	assert.NoError(t, manager.Checkpoint(ctx))
}

func TestManager_Restore_RebuildsMonthFromDays(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := day(2025, 12, 28).Add(9 * time.Hour)
	store := stores.NewAccumulatorStore(now)
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	ctx := context.Background()

	snapshots.EXPECT().ListSnapshots(ctx, models.WindowMonthly, time.Time{}, day(2026, 1, 1)).Return(nil, nil)
	snapshots.EXPECT().ListSnapshots(ctx, models.WindowDaily, day(2025, 11, 1), day(2025, 12, 30)).Return([]models.SnapshotRecord{
		{Username: "alice", Accumulator: models.Accumulator{WindowKind: models.WindowDaily, WindowStart: day(2025, 12, 1), IncomingBytes: 10, Closed: true}},
		{Username: "alice", Accumulator: models.Accumulator{WindowKind: models.WindowDaily, WindowStart: day(2025, 12, 2), IncomingBytes: 20, Closed: true}},
		{Username: "alice", Accumulator: models.Accumulator{WindowKind: models.WindowDaily, WindowStart: day(2025, 12, 28), IncomingBytes: 3}},
	}, nil)

	require.NoError(t, manager.Restore(ctx, now))

	monthly, ok := store.Get(models.WindowMonthly, "alice")
	require.True(t, ok)
	assert.Equal(t, int64(30), monthly.IncomingBytes)
	assert.Equal(t, day(2025, 12, 2), monthly.FoldedThrough)
	today, ok := store.Get(models.WindowDaily, "alice")
	require.True(t, ok)
	assert.Equal(t, int64(3), today.IncomingBytes)
	assert.Equal(t, day(2025, 12, 28), store.WindowStart(models.WindowDaily))

	last, ok := manager.LastClosed(models.WindowDaily)
	require.True(t, ok)
	assert.Equal(t, day(2025, 12, 2), last.WindowStart)
}

func TestManager_Restore_PrefersMonthlyCheckpoint(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := day(2025, 12, 28).Add(9 * time.Hour)
	store := stores.NewAccumulatorStore(now)
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	ctx := context.Background()

	snapshots.EXPECT().ListSnapshots(ctx, models.WindowMonthly, gomock.Any(), gomock.Any()).Return([]models.SnapshotRecord{
		{Username: "alice", Accumulator: models.Accumulator{WindowStart: day(2025, 12, 1), IncomingBytes: 15, FoldedThrough: day(2025, 12, 1)}},
	}, nil)
	snapshots.EXPECT().ListSnapshots(ctx, models.WindowDaily, day(2025, 12, 1), gomock.Any()).Return([]models.SnapshotRecord{
		{Username: "alice", Accumulator: models.Accumulator{WindowStart: day(2025, 12, 1), IncomingBytes: 10, Closed: true}},
	}, nil)

	require.NoError(t, manager.Restore(ctx, now))

	monthly, _ := store.Get(models.WindowMonthly, "alice")
	assert.Equal(t, int64(15), monthly.IncomingBytes, "checkpoint includes late records the days do not")
}

func TestManager_Restore_FoldsClosedDayMissingFromMonth(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := day(2025, 12, 29).Add(9 * time.Hour)
	store := stores.NewAccumulatorStore(now)
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)
	ctx := context.Background()

	// Dec 28 was closed but the month written afterwards never made it.
	snapshots.EXPECT().ListSnapshots(ctx, models.WindowMonthly, gomock.Any(), gomock.Any()).Return([]models.SnapshotRecord{
		{Username: "alice", Accumulator: models.Accumulator{WindowStart: day(2025, 12, 1), IncomingBytes: 50, FoldedThrough: day(2025, 12, 27)}},
	}, nil)
	snapshots.EXPECT().ListSnapshots(ctx, models.WindowDaily, day(2025, 12, 1), day(2025, 12, 31)).Return([]models.SnapshotRecord{
		{Username: "alice", Accumulator: models.Accumulator{WindowStart: day(2025, 12, 27), IncomingBytes: 50, Closed: true}},
		{Username: "alice", Accumulator: models.Accumulator{WindowStart: day(2025, 12, 28), IncomingBytes: 100, Closed: true}},
		{Username: "bob", Accumulator: models.Accumulator{WindowStart: day(2025, 12, 28), IncomingBytes: 7, Closed: true}},
	}, nil)

	require.NoError(t, manager.Restore(ctx, now))

	alice, _ := store.Get(models.WindowMonthly, "alice")
	assert.Equal(t, int64(150), alice.IncomingBytes)
	assert.Equal(t, day(2025, 12, 28), alice.FoldedThrough)
	bob, _ := store.Get(models.WindowMonthly, "bob")
	assert.Equal(t, int64(7), bob.IncomingBytes)
	assert.Equal(t, day(2025, 12, 29), store.WindowStart(models.WindowDaily))
	assert.Empty(t, store.Snapshot(models.WindowDaily).Accumulators)
}

func newFileSnapshotStore(t *testing.T) stores.SnapshotStore {
	t.Helper()
	storage, err := filestorages.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return stores.NewFileSnapshotStore(storage)
}

func TestManager_RestartAcrossMidnightFoldsOpenDay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshots := newFileSnapshotStore(t)
	rolluper := aggregators.NewUsageRolluper()

	before := stores.NewAccumulatorStore(day(2025, 12, 28).Add(10 * time.Hour))
	seed(t, before, models.WindowMonthly, "bob", 5, 5)
	seed(t, before, models.WindowDaily, "alice", 100, 100)
	require.NoError(t, NewManager(before, snapshots, rolluper, nil).Checkpoint(ctx))

	// Down from Dec 28 evening until the next morning.
	now := day(2025, 12, 29).Add(9 * time.Hour)
	after := stores.NewAccumulatorStore(now)
	manager := NewManager(after, snapshots, rolluper, nil)
	require.NoError(t, manager.Restore(ctx, now))
	assert.Equal(t, day(2025, 12, 28), after.WindowStart(models.WindowDaily), "the interrupted day is reopened")

	evs, err := manager.CheckBoundaries(ctx, now)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, day(2025, 12, 28), evs[0].ClosedWindowStart)
	assert.Equal(t, int64(100), evs[0].Snapshot.Accumulators["alice"].IncomingBytes)

	alice, ok := after.Get(models.WindowMonthly, "alice")
	require.True(t, ok)
	assert.Equal(t, int64(100), alice.IncomingBytes)
	bob, ok := after.Get(models.WindowMonthly, "bob")
	require.True(t, ok)
	assert.Equal(t, int64(5), bob.IncomingBytes)

	// A second restart the same day must not fold Dec 28 twice.
	again := stores.NewAccumulatorStore(now.Add(time.Hour))
	require.NoError(t, NewManager(again, snapshots, rolluper, nil).Restore(ctx, now.Add(time.Hour)))
	alice, _ = again.Get(models.WindowMonthly, "alice")
	assert.Equal(t, int64(100), alice.IncomingBytes)
	assert.Equal(t, day(2025, 12, 29), again.WindowStart(models.WindowDaily))
}

func TestManager_RestartAcrossMonthClosesMonth(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshots := newFileSnapshotStore(t)
	rolluper := aggregators.NewUsageRolluper()

	before := stores.NewAccumulatorStore(day(2025, 11, 30).Add(22 * time.Hour))
	seed(t, before, models.WindowMonthly, "alice", 100, 100)
	seed(t, before, models.WindowDaily, "alice", 10, 10)
	require.NoError(t, NewManager(before, snapshots, rolluper, nil).Checkpoint(ctx))

	now := day(2025, 12, 2).Add(9 * time.Hour)
	after := stores.NewAccumulatorStore(now)
	manager := NewManager(after, snapshots, rolluper, nil)
	require.NoError(t, manager.Restore(ctx, now))
	_, ok := manager.LastClosed(models.WindowMonthly)
	assert.False(t, ok, "november has not been closed yet")

	evs, err := manager.CheckBoundaries(ctx, now)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, models.WindowDaily, evs[0].WindowKind)
	assert.Equal(t, models.WindowMonthly, evs[1].WindowKind)
	assert.Equal(t, day(2025, 11, 1), evs[1].ClosedWindowStart)
	assert.Equal(t, int64(110), evs[1].Snapshot.Accumulators["alice"].IncomingBytes)
	assert.Equal(t, day(2025, 12, 1), after.WindowStart(models.WindowMonthly))
	assert.Equal(t, day(2025, 12, 2), after.WindowStart(models.WindowDaily))

	// After yet another restart the closed month is still known.
	again := stores.NewAccumulatorStore(now.Add(time.Hour))
	restarted := NewManager(again, snapshots, rolluper, nil)
	require.NoError(t, restarted.Restore(ctx, now.Add(time.Hour)))
	last, ok := restarted.LastClosed(models.WindowMonthly)
	require.True(t, ok)
	assert.Equal(t, day(2025, 11, 1), last.WindowStart)
	assert.Equal(t, int64(110), last.Accumulators["alice"].IncomingBytes)
	assert.Equal(t, day(2025, 12, 1), again.WindowStart(models.WindowMonthly))
	assert.Empty(t, again.Snapshot(models.WindowMonthly).Accumulators)
}

func TestManager_RestoreKeepsDeferredDays(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshots := newFileSnapshotStore(t)
	rolluper := aggregators.NewUsageRolluper()
	now := day(2025, 12, 28).Add(23*time.Hour + 58*time.Minute)

	before := stores.NewAccumulatorStore(now)
	seed(t, before, models.WindowDaily, "alice", 1, 1)
	require.NoError(t, before.Tx(func(tx *stores.StoreTx) error {
		tx.Deferred(day(2025, 12, 29), "carol").IncomingBytes = 42
		return nil
	}))
	require.NoError(t, NewManager(before, snapshots, rolluper, nil).Checkpoint(ctx))

	after := stores.NewAccumulatorStore(now)
	require.NoError(t, NewManager(after, snapshots, rolluper, nil).Restore(ctx, now.Add(time.Minute)))

	assert.Equal(t, day(2025, 12, 28), after.WindowStart(models.WindowDaily))
	_, ok := after.Get(models.WindowDaily, "carol")
	assert.False(t, ok)
	parked := after.DeferredSnapshots()
	require.Len(t, parked, 1)
	assert.Equal(t, day(2025, 12, 29), parked[0].WindowStart)
	assert.Equal(t, int64(42), parked[0].Accumulators["carol"].IncomingBytes)
}

func TestManager_Restore_ListError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := stores.NewAccumulatorStore(day(2025, 12, 28))
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	manager := NewManager(store, snapshots, aggregators.NewUsageRolluper(), nil)

	snapshots.EXPECT().ListSnapshots(gomock.Any(), models.WindowMonthly, gomock.Any(), gomock.Any()).Return(nil, errors.New("no such table"))

	err := manager.Restore(context.Background(), day(2025, 12, 28))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROL_9002")
}

package reports

import (
	"testing"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/stores"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Build(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	now := time.Date(2025, 12, 28, 12, 0, 0, 0, time.UTC)
	clock.Set(now)

	store := stores.NewAccumulatorStore(now)
	require.NoError(t, store.Tx(func(tx *stores.StoreTx) error {
		for _, u := range []struct {
			name     string
			in, out  int64
			sessions int64
		}{
			{"carol", 5, 50, 1},
			{"alice", 10, 100, 2},
			{"bob", 0, 0, 1},
		} {
			acc := tx.Accumulator(models.WindowDaily, u.name)
			acc.IncomingBytes = u.in
			acc.OutgoingBytes = u.out
			acc.ConnectionCount = u.sessions
			acc.TotalDurationSeconds = 60 * u.sessions
		}
		return nil
	}))

	report := NewGenerator(clock).Build(store, models.WindowDaily)

	assert.Equal(t, models.WindowDaily, report.WindowKind)
	assert.Equal(t, time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC), report.WindowStart)
	assert.Equal(t, now, report.GeneratedAt)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, "alice", report.Rows[0].Username)
	assert.Equal(t, "bob", report.Rows[1].Username)
	assert.Equal(t, "carol", report.Rows[2].Username)
	assert.Equal(t, models.ReportTotals{
		OutgoingBytes:        150,
		IncomingBytes:        15,
		ConnectionCount:      4,
		TotalDurationSeconds: 240,
	}, report.Totals)
	assert.False(t, report.IsEmpty())
}

func TestGenerator_BuildSnapshot_Empty(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	start := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	report := NewGenerator(clock).BuildSnapshot(models.WindowSnapshot{
		WindowKind:   models.WindowMonthly,
		WindowStart:  start,
		Accumulators: map[string]models.Accumulator{},
	})

	assert.Equal(t, models.WindowMonthly, report.WindowKind)
	assert.Equal(t, start, report.WindowStart)
	assert.NotNil(t, report.Rows)
	assert.Empty(t, report.Rows)
	assert.Equal(t, models.ReportTotals{}, report.Totals)
	assert.True(t, report.IsEmpty())
}

func TestGenerator_Build_DoesNotAliasStore(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 12, 28, 12, 0, 0, 0, time.UTC)
	store := stores.NewAccumulatorStore(now)
	require.NoError(t, store.Tx(func(tx *stores.StoreTx) error {
		tx.Accumulator(models.WindowDaily, "alice").IncomingBytes = 1
		return nil
	}))

	report := NewGenerator(quartz.NewMock(t)).Build(store, models.WindowDaily)
	require.NoError(t, store.Tx(func(tx *stores.StoreTx) error {
		tx.Accumulator(models.WindowDaily, "alice").IncomingBytes = 99
		return nil
	}))

	assert.Equal(t, int64(1), report.Rows[0].IncomingBytes)
	assert.Equal(t, int64(1), report.Totals.IncomingBytes)
}

func TestGenerator_Build_MonthlyIncludesOpenDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 12, 29, 9, 0, 0, 0, time.UTC)
	store := stores.NewAccumulatorStore(now)
	require.NoError(t, store.Tx(func(tx *stores.StoreTx) error {
		month := tx.Accumulator(models.WindowMonthly, "alice")
		month.OutgoingBytes, month.IncomingBytes, month.ConnectionCount, month.TotalDurationSeconds = 100, 50, 1, 10
		today := tx.Accumulator(models.WindowDaily, "alice")
		today.OutgoingBytes, today.IncomingBytes, today.ConnectionCount, today.TotalDurationSeconds = 50, 20, 1, 5
		return nil
	}))

	report := NewGenerator(quartz.NewMock(t)).Build(store, models.WindowMonthly)

	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), report.WindowStart)
	assert.Equal(t, []models.ReportRow{
		{Username: "alice", OutgoingBytes: 150, IncomingBytes: 70, ConnectionCount: 2, TotalDurationSeconds: 15},
	}, report.Rows)
}

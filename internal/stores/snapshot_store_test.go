package stores

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/filestorages"
	"ocstat/internal/shared/filestorages/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFileSnapshotStore_WriteSnapshot_Success(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewFileSnapshotStore(mockFileStorage)

	ctx := context.Background()
	acc := models.Accumulator{
		WindowStart:          time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC),
		OutgoingBytes:        2048,
		IncomingBytes:        1024,
		ConnectionCount:      2,
		TotalDurationSeconds: 90,
	}

	mockFileStorage.EXPECT().
		Put(ctx, "snapshots/daily/20251228/alice.json", gomock.Any(), filestorages.PutOptions{AllowOverwrite: true}).
		DoAndReturn(func(ctx context.Context, key string, r io.Reader, opts filestorages.PutOptions) (*filestorages.PutResult, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)

			var doc snapshotDocument
			require.NoError(t, json.Unmarshal(data, &doc))
			assert.Equal(t, "alice", doc.Username)
			assert.Equal(t, models.WindowDaily, doc.Accumulator.WindowKind)
			assert.Equal(t, int64(2048), doc.Accumulator.OutgoingBytes)
			assert.Equal(t, int64(90), doc.Accumulator.TotalDurationSeconds)
			return &filestorages.PutResult{FileKey: key}, nil
		})

	err := store.WriteSnapshot(ctx, models.WindowDaily, "alice", acc)
	assert.NoError(t, err)
}

func TestFileSnapshotStore_WriteSnapshot_EscapesUsername(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewFileSnapshotStore(mockFileStorage)

	ctx := context.Background()
	acc := models.Accumulator{WindowStart: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)}

	mockFileStorage.EXPECT().
		Put(ctx, "snapshots/monthly/202512/team%2Fops.json", gomock.Any(), filestorages.PutOptions{AllowOverwrite: true}).
		Return(&filestorages.PutResult{}, nil)

	assert.NoError(t, store.WriteSnapshot(ctx, models.WindowMonthly, "team/ops", acc))
}

func TestFileSnapshotStore_WriteSnapshot_PutError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewFileSnapshotStore(mockFileStorage)

	ctx := context.Background()
	acc := models.Accumulator{WindowStart: time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)}

	mockFileStorage.EXPECT().
		Put(ctx, "snapshots/daily/20251228/alice.json", gomock.Any(), filestorages.PutOptions{AllowOverwrite: true}).
		Return(nil, errors.New("disk full"))

	err := store.WriteSnapshot(ctx, models.WindowDaily, "alice", acc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put snapshot")
	assert.Contains(t, err.Error(), "disk full")
}

func TestFileSnapshotStore_ListSnapshots_FiltersByRange(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewFileSnapshotStore(mockFileStorage)
	ctx := context.Background()

	docs := map[string]snapshotDocument{
		"snapshots/daily/20251130/alice.json": {Username: "alice", Accumulator: models.Accumulator{WindowStart: time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), IncomingBytes: 1}},
		"snapshots/daily/20251201/alice.json": {Username: "alice", Accumulator: models.Accumulator{WindowStart: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), IncomingBytes: 2}},
		"snapshots/daily/20251202/bob.json":   {Username: "bob", Accumulator: models.Accumulator{WindowStart: time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC), IncomingBytes: 3}},
		"snapshots/daily/20251203/bob.json":   {Username: "bob", Accumulator: models.Accumulator{WindowStart: time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC), IncomingBytes: 4}},
	}
	keys := []string{
		"snapshots/daily/20251130/alice.json",
		"snapshots/daily/20251201/alice.json",
		"snapshots/daily/20251202/bob.json",
		"snapshots/daily/20251203/bob.json",
	}

	mockFileStorage.EXPECT().List(ctx, "snapshots/daily").Return(keys, nil)
	mockFileStorage.EXPECT().Get(ctx, gomock.Any()).Times(len(keys)).
		DoAndReturn(func(ctx context.Context, key string) (io.ReadCloser, error) {
			data, err := json.Marshal(docs[key])
			require.NoError(t, err)
			return io.NopCloser(strings.NewReader(string(data))), nil
		})

	records, err := store.ListSnapshots(ctx, models.WindowDaily,
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0].Username)
	assert.Equal(t, int64(2), records[0].Accumulator.IncomingBytes)
	assert.Equal(t, "bob", records[1].Username)
	assert.Equal(t, int64(3), records[1].Accumulator.IncomingBytes)
}

func TestFileSnapshotStore_ListSnapshots_ListError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewFileSnapshotStore(mockFileStorage)
	ctx := context.Background()

	mockFileStorage.EXPECT().List(ctx, "snapshots/monthly").Return(nil, errors.New("permission denied"))

	_, err := store.ListSnapshots(ctx, models.WindowMonthly, time.Time{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestFileSnapshotStore_RoundTripOnDisk(t *testing.T) {
	t.Parallel()

	fs, err := filestorages.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	store := NewFileSnapshotStore(fs)
	ctx := context.Background()

	start := time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)
	acc := models.Accumulator{WindowStart: start, IncomingBytes: 10}
	require.NoError(t, store.WriteSnapshot(ctx, models.WindowDaily, "alice", acc))

	// A second write for the same key replaces the first.
	acc.IncomingBytes = 12
	require.NoError(t, store.WriteSnapshot(ctx, models.WindowDaily, "alice", acc))

	records, err := store.ListSnapshots(ctx, models.WindowDaily, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(12), records[0].Accumulator.IncomingBytes)
	assert.True(t, start.Equal(records[0].Accumulator.WindowStart))
}

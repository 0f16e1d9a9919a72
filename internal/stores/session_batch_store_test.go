package stores

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/filestorages"
	"ocstat/internal/shared/filestorages/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestSessionBatch() *models.SessionBatch {
	return &models.SessionBatch{
		BatchID:    "01JG3Y2V9Q4T3A4X8J6N2C7R5K",
		ReceivedAt: time.Date(2025, 12, 28, 18, 3, 15, 0, time.UTC),
		Records: []*models.SessionRecord{
			{
				Username:        "alice",
				EventKind:       models.EventDisconnect,
				BytesIn:         "1024",
				BytesOut:        "2048",
				DurationSeconds: "60",
				Timestamp:       time.Date(2025, 12, 28, 18, 3, 0, 0, time.UTC),
			},
		},
	}
}

func TestSessionBatchStore_Put_Success(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewSessionBatchStore(mockFileStorage)

	ctx := context.Background()
	batch := newTestSessionBatch()
	expectedJSON, _ := json.Marshal(batch)

	mockFileStorage.EXPECT().
		Put(ctx, "session-batches/20251228/01JG3Y2V9Q4T3A4X8J6N2C7R5K.json", gomock.Any(), filestorages.PutOptions{AllowOverwrite: false}).
		DoAndReturn(func(ctx context.Context, key string, r io.Reader, opts filestorages.PutOptions) (*filestorages.PutResult, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, expectedJSON, data)
			return &filestorages.PutResult{FileKey: key}, nil
		})

	assert.NoError(t, store.Put(ctx, batch))
}

func TestSessionBatchStore_Put_AlreadyExists(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewSessionBatchStore(mockFileStorage)

	mockFileStorage.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, filestorages.ErrFileAlreadyExists)

	err := store.Put(context.Background(), newTestSessionBatch())
	assert.ErrorIs(t, err, ErrSessionBatchAlreadyExist)
}

func TestSessionBatchStore_Put_OtherError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFileStorage := mocks.NewMockFileStorage(ctrl)
	store := NewSessionBatchStore(mockFileStorage)

	mockFileStorage.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("read-only file system"))

	err := store.Put(context.Background(), newTestSessionBatch())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionBatchAlreadyExist)
	assert.Contains(t, err.Error(), "failed to put session batch")
}

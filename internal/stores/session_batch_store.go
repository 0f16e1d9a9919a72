package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ocstat/internal/models"
	"ocstat/internal/shared/filestorages"
)

var (
	ErrSessionBatchAlreadyExist = errors.New("session batch already exists")
)

// SessionBatchStore keeps every pushed batch verbatim and rejects a second
// batch with the same id. Put is an atomic create-if-absent, so a client
// retrying a request it never saw acknowledged cannot double count usage.
//
//go:generate mockgen -source=session_batch_store.go -destination=./mocks/session_batch_store_mock.go -package=mocks
type SessionBatchStore interface {
	Put(ctx context.Context, batch *models.SessionBatch) error
}

type sessionBatchStore struct {
	fileStorage filestorages.FileStorage
	dir         string
}

func NewSessionBatchStore(fileStorage filestorages.FileStorage) SessionBatchStore {
	return &sessionBatchStore{fileStorage: fileStorage, dir: "session-batches"}
}

func (s *sessionBatchStore) Put(ctx context.Context, batch *models.SessionBatch) error {
	jsonData, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal session batch: %w", err)
	}

	day := models.WindowDaily.FormatWindowStart(batch.ReceivedAt)
	key := fmt.Sprintf("%s/%s/%s.json", s.dir, day, batch.BatchID)

	_, err = s.fileStorage.Put(ctx, key, bytes.NewReader(jsonData), filestorages.PutOptions{AllowOverwrite: false})
	if err != nil {
		if errors.Is(err, filestorages.ErrFileAlreadyExists) {
			return ErrSessionBatchAlreadyExist
		}
		return fmt.Errorf("failed to put session batch: %w", err)
	}
	return nil
}

package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ocstat/internal/shared/filestorages"
)

// SourceOffsetStore remembers how far each session log file has been read.
type SourceOffsetStore interface {
	Load(ctx context.Context) (map[string]int64, error)
	Save(ctx context.Context, offsets map[string]int64) error
}

type sourceOffsetStore struct {
	fileStorage filestorages.FileStorage
	key         string
}

func NewSourceOffsetStore(fileStorage filestorages.FileStorage) SourceOffsetStore {
	return &sourceOffsetStore{fileStorage: fileStorage, key: "source-offsets.json"}
}

// NewSourceCursorStore keeps the fetch cursor of time-ranged sources as unix
// nanoseconds keyed by source name.
func NewSourceCursorStore(fileStorage filestorages.FileStorage) SourceOffsetStore {
	return &sourceOffsetStore{fileStorage: fileStorage, key: "source-cursors.json"}
}

// NewReportMarkStore keeps, per window kind, the start of the last closed
// window whose report was delivered, as unix nanoseconds.
func NewReportMarkStore(fileStorage filestorages.FileStorage) SourceOffsetStore {
	return &sourceOffsetStore{fileStorage: fileStorage, key: "report-marks.json"}
}

// Load returns an empty map when nothing was saved yet.
func (s *sourceOffsetStore) Load(ctx context.Context) (map[string]int64, error) {
	readCloser, err := s.fileStorage.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, filestorages.ErrFileNotFound) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("failed to get source offsets: %w", err)
	}
	defer readCloser.Close()

	data, err := io.ReadAll(readCloser)
	if err != nil {
		return nil, fmt.Errorf("failed to read source offsets: %w", err)
	}
	offsets := map[string]int64{}
	if err := json.Unmarshal(data, &offsets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source offsets: %w", err)
	}
	return offsets, nil
}

func (s *sourceOffsetStore) Save(ctx context.Context, offsets map[string]int64) error {
	jsonData, err := json.Marshal(offsets)
	if err != nil {
		return fmt.Errorf("failed to marshal source offsets: %w", err)
	}
	if _, err := s.fileStorage.Put(ctx, s.key, bytes.NewReader(jsonData), filestorages.PutOptions{AllowOverwrite: true}); err != nil {
		return fmt.Errorf("failed to put source offsets: %w", err)
	}
	return nil
}

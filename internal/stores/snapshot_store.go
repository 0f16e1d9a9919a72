package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/filestorages"
)

// SnapshotStore is the persistence gateway for closed windows. Writes are
// idempotent upserts keyed by window kind, window start and username.
//
//go:generate mockgen -source=snapshot_store.go -destination=./mocks/snapshot_store_mock.go -package=mocks
type SnapshotStore interface {
	WriteSnapshot(ctx context.Context, kind models.WindowKind, username string, acc models.Accumulator) error
	// ListSnapshots returns snapshots of kind whose window starts in [from, to).
	ListSnapshots(ctx context.Context, kind models.WindowKind, from, to time.Time) ([]models.SnapshotRecord, error)
}

type snapshotDocument struct {
	Username    string             `json:"username"`
	Accumulator models.Accumulator `json:"accumulator"`
}

type fileSnapshotStore struct {
	fileStorage filestorages.FileStorage
	dir         string
}

// NewFileSnapshotStore keeps one JSON document per user and window:
// snapshots/<kind>/<window>/<username>.json.
func NewFileSnapshotStore(fileStorage filestorages.FileStorage) SnapshotStore {
	return &fileSnapshotStore{fileStorage: fileStorage, dir: "snapshots"}
}

func (s *fileSnapshotStore) WriteSnapshot(ctx context.Context, kind models.WindowKind, username string, acc models.Accumulator) error {
	acc.WindowKind = kind
	jsonData, err := json.Marshal(snapshotDocument{Username: username, Accumulator: acc})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := s.getKey(kind, acc.WindowStart, username)
	_, err = s.fileStorage.Put(ctx, key, bytes.NewReader(jsonData), filestorages.PutOptions{AllowOverwrite: true})
	if err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

func (s *fileSnapshotStore) ListSnapshots(ctx context.Context, kind models.WindowKind, from, to time.Time) ([]models.SnapshotRecord, error) {
	keys, err := s.fileStorage.List(ctx, fmt.Sprintf("%s/%s", s.dir, kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var records []models.SnapshotRecord
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		doc, err := s.read(ctx, key)
		if err != nil {
			return nil, err
		}
		start := doc.Accumulator.WindowStart
		if start.Before(from) || !start.Before(to) {
			continue
		}
		records = append(records, models.SnapshotRecord{Username: doc.Username, Accumulator: doc.Accumulator})
	}
	return records, nil
}

func (s *fileSnapshotStore) read(ctx context.Context, key string) (*snapshotDocument, error) {
	readCloser, err := s.fileStorage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %q: %w", key, err)
	}
	defer readCloser.Close()

	data, err := io.ReadAll(readCloser)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %q: %w", key, err)
	}
	return &doc, nil
}

func (s *fileSnapshotStore) getKey(kind models.WindowKind, windowStart time.Time, username string) string {
	return fmt.Sprintf("%s/%s/%s/%s.json", s.dir, kind, kind.FormatWindowStart(windowStart), url.PathEscape(username))
}

package sources

import (
	"context"
	"time"

	"ocstat/internal/models"
)

const (
	NameFile     = "file"
	NamePostgres = "postgres"
	NamePush     = "push"
)

// Source supplies session records to the collect job.
//
//go:generate mockgen -source=source.go -destination=./mocks/source_mock.go -package=mocks
type Source interface {
	Name() string
	// FetchSince returns records newer than since. Sources that track their
	// own read position may ignore since.
	FetchSince(ctx context.Context, since time.Time) ([]models.SessionRecord, error)
}

// Acknowledger is implemented by sources that keep a read position. Ack
// commits everything returned by the last FetchSince; until then a restart
// re-reads it.
type Acknowledger interface {
	Ack(ctx context.Context) error
}

// SessionWriter records one event at the source. It is the write side used by
// the ocserv connect/disconnect hook.
type SessionWriter interface {
	Write(ctx context.Context, record models.SessionRecord) error
}

package stores

import (
	"context"
	"fmt"
	"time"

	"ocstat/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// UsageSnapshotModel is the usage_snapshots row. Window starts are stored in UTC.
type UsageSnapshotModel struct {
	ID                   uint      `gorm:"primaryKey"`
	WindowKind           string    `gorm:"size:16;not null;uniqueIndex:idx_usage_snapshot_identity"`
	WindowStart          time.Time `gorm:"not null;uniqueIndex:idx_usage_snapshot_identity"`
	Username             string    `gorm:"size:128;not null;uniqueIndex:idx_usage_snapshot_identity"`
	OutgoingBytes        int64     `gorm:"not null;default:0"`
	IncomingBytes        int64     `gorm:"not null;default:0"`
	ConnectionCount      int64     `gorm:"not null;default:0"`
	TotalDurationSeconds int64     `gorm:"not null;default:0"`
	FoldedThrough        *time.Time
	Closed               bool `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (UsageSnapshotModel) TableName() string {
	return "usage_snapshots"
}

// OpenDatabase opens a gorm connection for driver sqlite, mysql or postgres.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	return db, nil
}

type sqlSnapshotStore struct {
	db *gorm.DB
}

// NewSQLSnapshotStore migrates the usage_snapshots table and returns a gateway on it.
func NewSQLSnapshotStore(db *gorm.DB) (SnapshotStore, error) {
	if err := db.AutoMigrate(&UsageSnapshotModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate usage snapshots: %w", err)
	}
	return &sqlSnapshotStore{db: db}, nil
}

func (s *sqlSnapshotStore) WriteSnapshot(ctx context.Context, kind models.WindowKind, username string, acc models.Accumulator) error {
	model := &UsageSnapshotModel{
		WindowKind:           string(kind),
		WindowStart:          acc.WindowStart.UTC(),
		Username:             username,
		OutgoingBytes:        acc.OutgoingBytes,
		IncomingBytes:        acc.IncomingBytes,
		ConnectionCount:      acc.ConnectionCount,
		TotalDurationSeconds: acc.TotalDurationSeconds,
		Closed:               acc.Closed,
	}
	if !acc.FoldedThrough.IsZero() {
		foldedThrough := acc.FoldedThrough.UTC()
		model.FoldedThrough = &foldedThrough
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "window_kind"},
			{Name: "window_start"},
			{Name: "username"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"outgoing_bytes", "incoming_bytes", "connection_count", "total_duration_seconds",
			"folded_through", "closed", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

func (s *sqlSnapshotStore) ListSnapshots(ctx context.Context, kind models.WindowKind, from, to time.Time) ([]models.SnapshotRecord, error) {
	var rows []UsageSnapshotModel
	err := s.db.WithContext(ctx).
		Where("window_kind = ? AND window_start >= ? AND window_start < ?", string(kind), from.UTC(), to.UTC()).
		Order("window_start ASC, username ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	records := make([]models.SnapshotRecord, 0, len(rows))
	for _, row := range rows {
		acc := models.Accumulator{
			WindowKind:           kind,
			WindowStart:          row.WindowStart,
			OutgoingBytes:        row.OutgoingBytes,
			IncomingBytes:        row.IncomingBytes,
			ConnectionCount:      row.ConnectionCount,
			TotalDurationSeconds: row.TotalDurationSeconds,
			Closed:               row.Closed,
		}
		if row.FoldedThrough != nil {
			acc.FoldedThrough = *row.FoldedThrough
		}
		records = append(records, models.SnapshotRecord{Username: row.Username, Accumulator: acc})
	}
	return records, nil
}

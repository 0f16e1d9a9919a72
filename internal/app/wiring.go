package app

import (
	"context"
	"fmt"
	"time"

	"ocstat/internal/aggregators"
	"ocstat/internal/ingestors"
	"ocstat/internal/models"
	"ocstat/internal/notifiers"
	"ocstat/internal/shared/configs"
	"ocstat/internal/shared/filestorages"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/sources"
	"ocstat/internal/stores"
	"ocstat/internal/streams"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

const (
	queueDrainLimit    = 10000
	startupDialTimeout = 15 * time.Second
)

// sourceWiring is what the selected source backend contributes.
type sourceWiring struct {
	source   sources.Source
	registry aggregators.KnownIPRegistry
	// hookNotifies is set when the connect/disconnect hook sends notices
	// itself, so the aggregator must not repeat them.
	hookNotifies     bool
	ingestionService ingestors.IngestionService
	queue            *streams.PartitionedQueue[models.SessionRecord]
	radius           *sources.RadiusListener
}

func newSnapshotStore(config *configs.Config, fileStorage filestorages.FileStorage, res *resources) (stores.SnapshotStore, error) {
	if config.Persistence.Backend != configs.PersistenceBackendSQL {
		return stores.NewFileSnapshotStore(fileStorage), nil
	}

	db, err := stores.OpenDatabase(config.Persistence.SQL.Driver, config.Persistence.SQL.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql pool: %w", err)
	}
	res.add("sql", sqlDB.Close)

	return stores.NewSQLSnapshotStore(db)
}

func newKnownIPRegistry(config *configs.Config, res *resources) aggregators.KnownIPRegistry {
	if config.KnownIPs.Backend != configs.KnownIPBackendRedis {
		return sources.NewMemoryKnownIPRegistry()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.KnownIPs.Redis.Addr,
		Password: config.KnownIPs.Redis.Password,
		DB:       config.KnownIPs.Redis.DB,
	})
	res.add("redis", client.Close)
	return sources.NewRedisKnownIPRegistry(client, config.KnownIPs.Redis.KeyPrefix)
}

func newSource(config *configs.Config, fileStorage filestorages.FileStorage, clock quartz.Clock, appLogger loggers.Logger, res *resources) (*sourceWiring, error) {
	switch config.Source.Backend {
	case configs.SourceBackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), startupDialTimeout)
		defer cancel()

		pool, err := sources.OpenPostgresPool(ctx, config.Source.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		res.add("postgres", func() error { pool.Close(); return nil })

		pg := sources.NewPostgresSource(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return &sourceWiring{source: pg, registry: pg, hookNotifies: true}, nil

	case configs.SourceBackendPush:
		queue := streams.NewPartitionedQueue[models.SessionRecord]()
		producer := streams.NewSessionProducer(queue)
		batchStore := stores.NewSessionBatchStore(fileStorage)

		wiring := &sourceWiring{
			source:           sources.NewQueueSource(streams.NewSessionConsumer(queue), queueDrainLimit),
			registry:         newKnownIPRegistry(config, res),
			ingestionService: ingestors.NewIngestionService(batchStore, producer, clock),
			queue:            queue,
		}
		if config.Source.Radius.Enabled {
			radiusLogger := appLogger.With().Str(loggers.FieldComponent, "radius").Logger()
			wiring.radius = sources.NewRadiusListener(config.Source.Radius.Addr, config.Source.Radius.Secret, producer, clock, radiusLogger)
		}
		return wiring, nil

	default:
		offsets := stores.NewSourceOffsetStore(fileStorage)
		source := sources.NewFileSource(afero.NewOsFs(), offsets, sources.FileSourceOptions{
			Dir:    config.Source.File.Dir,
			Suffix: config.Source.File.Suffix,
		})
		return &sourceWiring{source: source, registry: newKnownIPRegistry(config, res)}, nil
	}
}

func newNotifier(config *configs.Config) (notifiers.Notifier, error) {
	if config.Notifier.Kind == configs.NotifierKindLog {
		return notifiers.NewLogNotifier(), nil
	}
	return notifiers.NewTelegramNotifier(notifiers.TelegramOptions{
		BotToken:   config.Notifier.Telegram.BotToken,
		ChatID:     config.Notifier.Telegram.ChatID,
		APIBaseURL: config.Notifier.Telegram.APIBaseURL,
		Timeout:    time.Duration(config.Notifier.Telegram.TimeoutSeconds) * time.Second,
	})
}

func rolloverKinds(names []string) ([]models.WindowKind, error) {
	kinds := make([]models.WindowKind, 0, len(names))
	for _, name := range names {
		kind, err := models.NewWindowKindFromString(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func containsKind(kinds []models.WindowKind, kind models.WindowKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// resources collects what must be closed on shutdown, in reverse order of
// creation.
type resources struct {
	names   []string
	closers []func() error
}

func (r *resources) add(name string, closer func() error) {
	r.names = append(r.names, name)
	r.closers = append(r.closers, closer)
}

func (r *resources) closeAll(logger loggers.Logger) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logger.Warn().Err(err).Str("resource", r.names[i]).Msg("failed to close resource")
		}
	}
	r.names, r.closers = nil, nil
}

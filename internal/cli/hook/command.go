package hook

import (
	"fmt"
	"os"
	"time"

	"ocstat/internal/cli/clicfg"
	"ocstat/internal/notifiers"
	"ocstat/internal/shared/configs"
	"ocstat/internal/sources"

	"github.com/coder/quartz"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func NewCommand(flags *clicfg.Flags) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Record an ocserv connect or disconnect event",
		Long: `Run as ocserv's connect-script and disconnect-script. The event is read from
the environment ocserv sets (USERNAME, REASON, IP_REAL, IP_REMOTE,
STATS_BYTES_IN, STATS_BYTES_OUT, STATS_DURATION) and written to the
configured source backend.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			logger, err := clicfg.Logger(cfg, "hook")
			if err != nil {
				return err
			}
			ctx := logger.WithContext(cmd.Context())

			runner, closeFn, err := newRunner(cmd, cfg, serverURL)
			if err != nil {
				return err
			}
			defer closeFn()

			return runner.Run(ctx, os.Getenv)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server-url", "", "Base URL of the ocstat server for backend push (default http://127.0.0.1:<server.port>)")

	return cmd
}

func newRunner(cmd *cobra.Command, cfg *configs.Config, serverURL string) (*Runner, func(), error) {
	opts := Options{
		Tag:               cfg.Deployment.Tag,
		UsernameSeparator: cfg.Source.UsernameSeparator,
		NotifyNewIPs:      cfg.Notifier.NotifyNewIPs,
		NotifyDisconnects: cfg.Notifier.NotifyDisconnects,
	}
	clock := quartz.NewReal()
	out := cmd.OutOrStdout()

	switch cfg.Source.Backend {
	case configs.SourceBackendPostgres:
		pool, err := sources.OpenPostgresPool(cmd.Context(), cfg.Source.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		pg := sources.NewPostgresSource(pool)
		if err := pg.EnsureSchema(cmd.Context()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		notifier, err := newNotifier(cfg)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		writer := sources.NewPostgresSessionWriter(pg, func() time.Time { return clock.Now() })
		return NewRunner(writer, pg, notifier, clock, out, opts), pool.Close, nil

	case configs.SourceBackendPush:
		if serverURL == "" {
			serverURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
		}
		writer := sources.NewHTTPSessionWriter(serverURL, 10*time.Second)
		return NewRunner(writer, nil, nil, clock, out, opts), func() {}, nil

	default:
		writer := sources.NewFileSessionWriter(afero.NewOsFs(), sources.FileSourceOptions{
			Dir:    cfg.Source.File.Dir,
			Suffix: cfg.Source.File.Suffix,
		})
		return NewRunner(writer, nil, nil, clock, out, opts), func() {}, nil
	}
}

func newNotifier(cfg *configs.Config) (notifiers.Notifier, error) {
	if cfg.Notifier.Kind == configs.NotifierKindLog {
		return notifiers.NewLogNotifier(), nil
	}
	return notifiers.NewTelegramNotifier(notifiers.TelegramOptions{
		BotToken:   cfg.Notifier.Telegram.BotToken,
		ChatID:     cfg.Notifier.Telegram.ChatID,
		APIBaseURL: cfg.Notifier.Telegram.APIBaseURL,
		Timeout:    time.Duration(cfg.Notifier.Telegram.TimeoutSeconds) * time.Second,
	})
}

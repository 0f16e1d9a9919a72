package inspect

import (
	"fmt"
	"time"

	"ocstat/internal/cli/clicfg"
	"ocstat/internal/shared/configs"
	"ocstat/internal/sources"

	"github.com/spf13/cobra"
)

func NewCommand(flags *clicfg.Flags) *cobra.Command {
	var (
		since time.Duration
		limit int
	)

	cmd := &cobra.Command{
		Use:          "inspect",
		Short:        "Dump known IPs and recorded sessions",
		Long:         `Print the user_ips and user_sessions tables of the postgres source backend.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			if cfg.Source.Backend != configs.SourceBackendPostgres {
				return fmt.Errorf("inspect requires source.backend=%s, got %q", configs.SourceBackendPostgres, cfg.Source.Backend)
			}

			pool, err := sources.OpenPostgresPool(cmd.Context(), cfg.Source.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()
			store := sources.NewPostgresSource(pool)

			out := cmd.OutOrStdout()
			if err := PrintKnownIPs(cmd.Context(), store, out); err != nil {
				return err
			}
			fmt.Fprintln(out)

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			return PrintSessions(cmd.Context(), store, out, from, limit)
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "Only sessions that ended within this duration (0 for all)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum number of sessions to print (0 for no limit)")

	return cmd
}

package main

import (
	"os"

	"ocstat/internal/cli/clicfg"
	"ocstat/internal/cli/hook"
	"ocstat/internal/cli/inspect"

	"github.com/spf13/cobra"
)

func main() {
	flags := &clicfg.Flags{}

	rootCmd := &cobra.Command{
		Use:   "ocstatctl",
		Short: "ocstat companion tools",
		Long:  `ocstatctl records ocserv connect/disconnect events for the ocstat server and inspects what was recorded.`,
	}
	flags.Bind(rootCmd)

	rootCmd.AddCommand(
		hook.NewCommand(flags),
		inspect.NewCommand(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package clicfg loads the environment and configuration shared by the
// ocstatctl subcommands.
package clicfg

import (
	"errors"
	"fmt"
	"io/fs"

	"ocstat/internal/shared/configs"
	"ocstat/internal/shared/loggers"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type Flags struct {
	ConfigPath string
	EnvFile    string
}

// Bind registers --config and --env-file on cmd and all its children.
func (f *Flags) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "./configs/configs.yml", "Path to the yaml config file")
	cmd.PersistentFlags().StringVar(&f.EnvFile, "env-file", ".env", "Optional dotenv file loaded before the config")
}

// Load reads the dotenv file, if present, then the config.
func (f *Flags) Load() (*configs.Config, error) {
	if err := godotenv.Load(f.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", f.EnvFile, err)
	}
	return configs.LoadConfig(f.ConfigPath)
}

// Logger builds the command logger. Hooks run once per connection, so no
// file sink is attached here.
func Logger(cfg *configs.Config, component string) (loggers.Logger, error) {
	logger, _, err := loggers.New(loggers.Options{Level: cfg.Log.Level})
	if err != nil {
		return logger, err
	}
	return logger.With().
		Str(loggers.FieldApp, "ocstatctl").
		Str(loggers.FieldComponent, component).
		Logger(), nil
}

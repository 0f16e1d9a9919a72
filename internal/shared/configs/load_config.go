package configs

import (
	"errors"
	"fmt"
	"strings"

	"ocstat/internal/shared/validators"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. OCSTAT_NOTIFIER_TELEGRAM_BOT_TOKEN.
const EnvPrefix = "OCSTAT"

// LoadConfig reads configuration from file, applies environment overrides and
// validates the result.
var LoadConfig = func(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
	}

	// Unmarshal into Config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	validate := validators.New()
	if err := validate.Struct(&cfg); err != nil {
		var validationErrors []string
		var ve validators.ValidationErrors
		if errors.As(err, &ve) {
			for _, e := range ve {
				validationErrors = append(validationErrors, formatValidationError(e))
			}
		}
		return nil, fmt.Errorf("config validation failed: %s", strings.Join(validationErrors, ", "))
	}
	if problems := validateBackends(&cfg); len(problems) > 0 {
		return nil, fmt.Errorf("config validation failed: %s", strings.Join(problems, ", "))
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("deployment.timezone", "UTC")
	v.SetDefault("source.backend", SourceBackendFile)
	v.SetDefault("source.username_separator", "_")
	v.SetDefault("source.file.suffix", ".sessions.log")
	v.SetDefault("source.postgres.dsn", "")
	v.SetDefault("source.radius.enabled", false)
	v.SetDefault("source.radius.addr", ":1813")
	v.SetDefault("source.radius.secret", "")
	v.SetDefault("known_ips.backend", KnownIPBackendMemory)
	v.SetDefault("known_ips.redis.addr", "")
	v.SetDefault("known_ips.redis.password", "")
	v.SetDefault("known_ips.redis.key_prefix", "ocstat:known-ips")
	v.SetDefault("persistence.backend", PersistenceBackendFile)
	v.SetDefault("persistence.sql.driver", "sqlite")
	v.SetDefault("persistence.sql.dsn", "")
	v.SetDefault("schedule.mode", ScheduleModeProduction)
	v.SetDefault("schedule.daily_report_time", "12:00")
	v.SetDefault("schedule.test_interval_seconds", 30)
	v.SetDefault("schedule.collect_interval_seconds", 60)
	v.SetDefault("schedule.poll_delay_seconds", 5)
	v.SetDefault("schedule.job_timeout_seconds", 120)
	v.SetDefault("report.send_empty", false)
	v.SetDefault("report.on_rollover", []string{"monthly"})
	v.SetDefault("report.archive", true)
	v.SetDefault("report.chart.width", 1200)
	v.SetDefault("report.chart.height", 900)
	v.SetDefault("notifier.kind", NotifierKindTelegram)
	v.SetDefault("notifier.notify_new_ips", true)
	v.SetDefault("notifier.notify_disconnects", false)
	v.SetDefault("notifier.telegram.bot_token", "")
	v.SetDefault("notifier.telegram.chat_id", "")
	v.SetDefault("notifier.telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("notifier.telegram.timeout_seconds", 30)
}

// validateBackends checks the settings each selected backend depends on.
func validateBackends(cfg *Config) []string {
	var problems []string
	if cfg.Source.Backend == SourceBackendFile && cfg.Source.File.Dir == "" {
		problems = append(problems, "source.file.dir (required for backend file)")
	}
	if cfg.Source.Backend == SourceBackendPostgres && cfg.Source.Postgres.DSN == "" {
		problems = append(problems, "source.postgres.dsn (required for backend postgres)")
	}
	if cfg.Source.Radius.Enabled && cfg.Source.Backend != SourceBackendPush {
		problems = append(problems, "source.radius.enabled (requires backend push)")
	}
	if cfg.KnownIPs.Backend == KnownIPBackendRedis && cfg.KnownIPs.Redis.Addr == "" {
		problems = append(problems, "known_ips.redis.addr (required for backend redis)")
	}
	if cfg.Persistence.Backend == PersistenceBackendSQL && cfg.Persistence.SQL.DSN == "" {
		problems = append(problems, "persistence.sql.dsn (required for backend sql)")
	}
	if cfg.Notifier.Kind == NotifierKindTelegram {
		if cfg.Notifier.Telegram.BotToken == "" {
			problems = append(problems, "notifier.telegram.bot_token (required for kind telegram)")
		}
		if cfg.Notifier.Telegram.ChatID == "" {
			problems = append(problems, "notifier.telegram.chat_id (required for kind telegram)")
		}
	}
	return problems
}

// formatValidationError formats a single validation error into a readable string.
func formatValidationError(e validators.FieldError) string {
	field := e.Field()

	// "Config.Schedule.DailyReportTime" -> "schedule.dailyreporttime"
	if parts := strings.Split(e.StructNamespace(), "."); len(parts) >= 2 {
		field = strings.ToLower(strings.Join(parts[1:], "."))
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s (required)", field)
	case "min", "max", "oneof", "required_if":
		return fmt.Sprintf("%s (%s=%s)", field, e.Tag(), e.Param())
	default:
		return fmt.Sprintf("%s (%s)", field, e.Tag())
	}
}

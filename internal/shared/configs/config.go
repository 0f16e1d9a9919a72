package configs

import "time"

const (
	SourceBackendFile     = "file"
	SourceBackendPostgres = "postgres"
	SourceBackendPush     = "push"

	PersistenceBackendFile = "file"
	PersistenceBackendSQL  = "sql"

	KnownIPBackendMemory = "memory"
	KnownIPBackendRedis  = "redis"

	ScheduleModeProduction = "production"
	ScheduleModeTest       = "test"

	NotifierKindTelegram = "telegram"
	NotifierKindLog      = "log"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Log         LogConfig         `mapstructure:"log" validate:"required"`
	FileStorage FileStorageConfig `mapstructure:"file_storage" validate:"required"`
	Deployment  DeploymentConfig  `mapstructure:"deployment" validate:"required"`
	Source      SourceConfig      `mapstructure:"source" validate:"required"`
	KnownIPs    KnownIPsConfig    `mapstructure:"known_ips" validate:"required"`
	Persistence PersistenceConfig `mapstructure:"persistence" validate:"required"`
	Schedule    ScheduleConfig    `mapstructure:"schedule" validate:"required"`
	Report      ReportConfig      `mapstructure:"report"`
	Notifier    NotifierConfig    `mapstructure:"notifier" validate:"required"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port              int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout int `mapstructure:"read_header_timeout" validate:"required,min=1"` // seconds
	ReadTimeout       int `mapstructure:"read_timeout" validate:"required,min=1"`        // seconds (headers+body)
	WriteTimeout      int `mapstructure:"write_timeout" validate:"required,min=1"`       // seconds (response)
	IdleTimeout       int `mapstructure:"idle_timeout" validate:"required,min=1"`        // seconds (keep-alive)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
}

// FileStorageConfig holds file storage configuration.
type FileStorageConfig struct {
	RootDir string `mapstructure:"root_dir" validate:"required"`
}

// DeploymentConfig identifies this node in outgoing messages and fixes the
// timezone that day and month boundaries are computed in.
type DeploymentConfig struct {
	Tag      string `mapstructure:"tag" validate:"required"`
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
}

// Location resolves Timezone. Validation guarantees it loads.
func (c DeploymentConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourceConfig selects where session records come from.
type SourceConfig struct {
	Backend           string               `mapstructure:"backend" validate:"required,oneof=file postgres push"`
	UsernameSeparator string               `mapstructure:"username_separator"`
	File              FileSourceConfig     `mapstructure:"file"`
	Postgres          PostgresSourceConfig `mapstructure:"postgres"`
	Radius            RadiusConfig         `mapstructure:"radius"`
}

type FileSourceConfig struct {
	Dir    string `mapstructure:"dir"`
	Suffix string `mapstructure:"suffix"`
}

type PostgresSourceConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RadiusConfig enables the accounting listener feeding the push backend.
type RadiusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Secret  string `mapstructure:"secret" validate:"required_if=Enabled true"`
}

// KnownIPsConfig selects the registry used when the source has none of its own.
type KnownIPsConfig struct {
	Backend string      `mapstructure:"backend" validate:"required,oneof=memory redis"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"min=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// PersistenceConfig selects the snapshot gateway.
type PersistenceConfig struct {
	Backend string    `mapstructure:"backend" validate:"required,oneof=file sql"`
	SQL     SQLConfig `mapstructure:"sql"`
}

type SQLConfig struct {
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=sqlite mysql postgres"`
	DSN    string `mapstructure:"dsn"`
}

// ScheduleConfig holds scheduler cadence. Mode test replaces the daily
// report time with a fixed interval; nothing else changes.
type ScheduleConfig struct {
	Mode                   string `mapstructure:"mode" validate:"required,oneof=production test"`
	DailyReportTime        string `mapstructure:"daily_report_time" validate:"required,hhmm"`
	TestIntervalSeconds    int    `mapstructure:"test_interval_seconds" validate:"required,min=1"`
	CollectIntervalSeconds int    `mapstructure:"collect_interval_seconds" validate:"required,min=1"`
	PollDelaySeconds       int    `mapstructure:"poll_delay_seconds" validate:"required,min=1"`
	JobTimeoutSeconds      int    `mapstructure:"job_timeout_seconds" validate:"required,min=1"`
}

// ReportConfig holds report delivery policy.
type ReportConfig struct {
	SendEmpty  bool        `mapstructure:"send_empty"`
	OnRollover []string    `mapstructure:"on_rollover" validate:"dive,oneof=daily monthly"`
	Archive    bool        `mapstructure:"archive"`
	Chart      ChartConfig `mapstructure:"chart"`
}

type ChartConfig struct {
	Width  int    `mapstructure:"width" validate:"min=0"`
	Height int    `mapstructure:"height" validate:"min=0"`
	Title  string `mapstructure:"title"`
}

// NotifierConfig holds outbound messaging configuration.
type NotifierConfig struct {
	Kind              string         `mapstructure:"kind" validate:"required,oneof=telegram log"`
	NotifyNewIPs      bool           `mapstructure:"notify_new_ips"`
	NotifyDisconnects bool           `mapstructure:"notify_disconnects"`
	Telegram          TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	BotToken       string `mapstructure:"bot_token"`
	ChatID         string `mapstructure:"chat_id"`
	APIBaseURL     string `mapstructure:"api_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=0"`
}

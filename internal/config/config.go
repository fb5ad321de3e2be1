package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"     validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP-server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	Env      string `mapstructure:"env"       validate:"required,oneof=development production test"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// DocsEnabled serves the static API description at /openapi.json.
	// Off by default; enable explicitly where docs are wanted.
	DocsEnabled bool `mapstructure:"docs_enabled"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig contains the cache/queue connection settings.
// URL takes precedence when set; otherwise Host/Port are used.
type RedisConfig struct {
	URL  string `mapstructure:"url"  validate:"omitempty,url"`
	Host string `mapstructure:"host" validate:"required_without=URL"`
	Port int    `mapstructure:"port" validate:"required_without=URL,gt=0,lt=65536"`
}

// AuthConfig contains the owner-derivation settings.
type AuthConfig struct {
	// BypassTelegramAuth disables the X-Telegram-Id check entirely.
	// UNSAFE FOR PRODUCTION. Intended only for local development and
	// health-check probes; every /tasks request is then anonymous and
	// unscoped. Defaults to false.
	BypassTelegramAuth bool `mapstructure:"bypass_telegram_auth"`
}

// SchedulerConfig contains the due-soon notification job settings.
type SchedulerConfig struct {
	NotificationQueue     string `mapstructure:"notification_queue"       validate:"required"`
	DueSoonThresholdHours int    `mapstructure:"due_soon_threshold_hours" validate:"required,gt=0"`
	CheckIntervalMinutes  int    `mapstructure:"check_interval_minutes"   validate:"required,gt=0"`
}

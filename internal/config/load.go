package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that feed them.
// The names mirror what the deployment environment already provides
// (DATABASE_URL, REDIS_URL, ...) rather than a prefixed scheme.
var envBindings = map[string]string{
	"server.port":                        "PORT",
	"server.env":                         "APP_ENV",
	"server.log_level":                   "LOG_LEVEL",
	"server.docs_enabled":                "DOCS_ENABLED",
	"database.url":                       "DATABASE_URL",
	"redis.url":                          "REDIS_URL",
	"redis.host":                         "REDIS_HOST",
	"redis.port":                         "REDIS_PORT",
	"auth.bypass_telegram_auth":          "AUTH_BYPASS_TELEGRAM",
	"scheduler.notification_queue":       "TASK_NOTIFICATION_QUEUE",
	"scheduler.due_soon_threshold_hours": "DUE_SOON_THRESHOLD_HOURS",
	"scheduler.check_interval_minutes":   "DUE_SOON_CHECK_INTERVAL_MINUTES",
}

// Load reads configuration from environment variables, applies defaults,
// and validates the result. Environment variables always take precedence
// over defaults. Returns a populated Config struct or an error describing
// every failed validation rule.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.docs_enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("auth.bypass_telegram_auth", false)
	v.SetDefault("scheduler.notification_queue", "task-notifications")
	v.SetDefault("scheduler.due_soon_threshold_hours", 24)
	v.SetDefault("scheduler.check_interval_minutes", 5)
}

// validate runs struct-tag validation and flattens the field errors into a
// single message so startup logs show every problem at once.
func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	issues := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, fmt.Sprintf("%s: failed %q rule", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
}

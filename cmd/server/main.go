// Package main implements the entry point for the taskgram API server,
// a task-management backend fronted by a Telegram bot and mini app.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/taskgram/api/internal/config"
	"github.com/taskgram/api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command instead of serving (up, down, status)")
	migrationsDir := flag.String("migrations-dir", "migrations",
		"directory containing goose SQL migrations")
	flag.Parse()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if *migrateCmd != "" {
		if err := runMigrations(db, *migrateCmd, *migrationsDir); err != nil {
			appLogger.Error("migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		appLogger.Info("migration completed", "command", *migrateCmd)
		return
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		appLogger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"env", cfg.Server.Env,
		"log_level", cfg.Server.LogLevel,
		"notification_queue", cfg.Scheduler.NotificationQueue)

	return cfg, appLogger, nil
}

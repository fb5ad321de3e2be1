package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taskgram/api/internal/config"
	"github.com/taskgram/api/internal/notify"
	"github.com/taskgram/api/internal/platform/postgres"
	platformredis "github.com/taskgram/api/internal/platform/redis"
	"github.com/taskgram/api/internal/scheduler"
	"github.com/taskgram/api/internal/service"
	"github.com/taskgram/api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db          *sql.DB
	redisClient *goredis.Client

	taskStore store.TaskStore
	cache     *platformredis.Cache
	queue     *platformredis.Queue

	taskService *service.TaskService
	scheduler   *scheduler.DueSoonScheduler
	consumer    *notify.Consumer
}

// newApplication creates a new application instance with all dependencies
// initialized and background workers started. It accepts core dependencies
// that must be established before application wiring.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	redisClient, err := platformredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redisClient = redisClient
	logger.Info("redis connection established")

	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.cache = platformredis.NewCache(redisClient, logger)
	app.queue = platformredis.NewQueue(redisClient, logger)

	app.taskService, err = service.NewTaskService(app.taskStore, app.cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.consumer, err = notify.NewConsumer(
		app.queue,
		cfg.Scheduler.NotificationQueue,
		notify.NewLogDispatcher(logger),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}
	app.consumer.Start()

	app.scheduler, err = scheduler.New(app.taskStore, app.queue, scheduler.Config{
		QueueName: cfg.Scheduler.NotificationQueue,
		Threshold: time.Duration(cfg.Scheduler.DueSoonThresholdHours) * time.Hour,
		Interval:  time.Duration(cfg.Scheduler.CheckIntervalMinutes) * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create due-soon scheduler: %w", err)
	}
	if err := app.scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start due-soon scheduler: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. Order matters:
// producers stop before the queue, the queue drains before its connection
// closes.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.queue != nil {
		app.queue.Close()
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}

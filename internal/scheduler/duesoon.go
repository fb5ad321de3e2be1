// Package scheduler runs the periodic due-soon scan that feeds the
// notification queue.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/taskgram/api/internal/notify"
	"github.com/taskgram/api/internal/store"
)

// ownerScanConcurrency bounds how many owners one tick scans at a time.
// Owners within a tick are processed concurrently with no ordering
// guarantee.
const ownerScanConcurrency = 8

// Enqueuer is the producing slice of the work queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, message any) error
}

// Config holds the due-soon job settings.
type Config struct {
	// QueueName is the notification queue messages are pushed onto.
	QueueName string

	// Threshold is the forward-looking due-date window.
	Threshold time.Duration

	// Interval is the pause between scans.
	Interval time.Duration
}

// DueSoonScheduler periodically scans every owner's pending tasks and
// enqueues one notification message per task due within the threshold.
//
// Each tick is a full owner-table scan: O(owners) work per interval with no
// backpressure. Acceptable at current scale; both knobs are configurable.
type DueSoonScheduler struct {
	store  store.TaskStore
	queue  Enqueuer
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a DueSoonScheduler. It does not start scanning until Start is
// called.
func New(taskStore store.TaskStore, queue Enqueuer, cfg Config, log *slog.Logger) (*DueSoonScheduler, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if queue == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("queue name cannot be empty")
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &DueSoonScheduler{
		store:  taskStore,
		queue:  queue,
		cfg:    cfg,
		cron:   cron.New(),
		logger: log.With(slog.String("component", "due_soon_scheduler")),
	}, nil
}

// Start schedules the periodic scan and launches the cron runner.
func (s *DueSoonScheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.runTick(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule due-soon scan: %w", err)
	}

	s.cron.Start()
	s.logger.Info("due-soon scheduler started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("threshold", s.cfg.Threshold),
		slog.String("queue", s.cfg.QueueName))
	return nil
}

// Stop halts scheduling and waits for an in-flight tick to finish.
func (s *DueSoonScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("due-soon scheduler stopped")
}

// runTick scans every owner once. Owners are processed concurrently and
// failures stay isolated: one owner's error is logged and never aborts the
// others, and a tick never panics the process.
func (s *DueSoonScheduler) runTick(ctx context.Context) {
	owners, err := s.store.DistinctOwnerIDs(ctx)
	if err != nil {
		s.logger.Error("failed to enumerate owners", slog.String("error", err.Error()))
		return
	}

	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ownerScanConcurrency)
	for _, ownerID := range owners {
		ownerID := ownerID
		g.Go(func() error {
			if err := s.scanOwner(gctx, ownerID, now); err != nil {
				s.logger.Error("due-soon scan failed for owner",
					slog.Int64("owner_id", ownerID),
					slog.String("error", err.Error()))
			}
			// Always nil: sibling owners keep running.
			return nil
		})
	}
	_ = g.Wait()
}

// scanOwner enqueues one notification per due-soon task for a single owner.
// An owner with no matches enqueues nothing and logs nothing.
func (s *DueSoonScheduler) scanOwner(ctx context.Context, ownerID int64, now time.Time) error {
	tasks, err := s.store.FindDueSoon(ctx, ownerID, now, s.cfg.Threshold)
	if err != nil {
		return fmt.Errorf("find due-soon tasks: %w", err)
	}

	for _, task := range tasks {
		msg := notify.Message{
			OwnerID:  task.OwnerID,
			TaskID:   task.ID.String(),
			Title:    task.Title,
			DueDate:  task.DueDate,
			Priority: string(task.Priority),
		}
		if err := s.queue.Enqueue(ctx, s.cfg.QueueName, msg); err != nil {
			return fmt.Errorf("enqueue notification for task %s: %w", task.ID, err)
		}
	}

	if len(tasks) > 0 {
		s.logger.Info("enqueued due-soon notifications",
			slog.Int64("owner_id", ownerID),
			slog.Int("count", len(tasks)))
	}

	return nil
}

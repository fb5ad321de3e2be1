package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskgram/api/internal/domain"
	"github.com/taskgram/api/internal/platform/logger"
	"github.com/taskgram/api/internal/store"
)

// readCacheTTL bounds how long a cached read survives without invalidation.
const readCacheTTL = 5 * time.Minute

// Cache is the key-value cache contract the use cases need.
// Satisfied by the Redis-backed cache in internal/platform/redis.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CreateTaskInput carries the caller-supplied fields for a new task.
// Zero status/priority values default to pending/medium.
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// TaskService implements the owner-scoped task use cases with a cache-aside
// read path.
//
// Writes invalidate the item key and the *unfiltered* list key only. Cached
// filtered-list entries are intentionally left to age out via TTL, so a
// filtered view can serve stale data for up to readCacheTTL after a write.
type TaskService struct {
	store  store.TaskStore
	cache  Cache
	logger *slog.Logger
}

// NewTaskService creates a TaskService with the given dependencies.
func NewTaskService(taskStore store.TaskStore, cache Cache, log *slog.Logger) (*TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &TaskService{
		store:  taskStore,
		cache:  cache,
		logger: log.With(slog.String("component", "task_service")),
	}, nil
}

// Create persists a new task for the owner and invalidates the owner's
// cached reads for it. Input validation beyond domain rules belongs to the
// presentation layer.
func (s *TaskService) Create(
	ctx context.Context,
	ownerID int64,
	input CreateTaskInput,
) (*domain.Task, error) {
	task, err := domain.NewTask(
		ownerID,
		input.Title,
		input.Description,
		input.Status,
		input.Priority,
		input.DueDate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, task); err != nil {
		return nil, err
	}

	// The item key cannot be populated yet, but deleting it alongside the
	// list key keeps create/update/delete symmetrical.
	s.invalidate(ctx, ownerID, task.ID)

	return task, nil
}

// GetByID returns the owner's task, serving from cache when possible.
// Returns store.ErrTaskNotFound if the store has no matching row for that
// owner.
func (s *TaskService) GetByID(
	ctx context.Context,
	ownerID int64,
	id uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := taskCacheKey(ownerID, id)

	var cached domain.Task
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// A broken cache degrades the read path to the store; it does not
		// fail the request.
		log.Warn("cache read failed, falling through to store",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	if hit {
		return &cached, nil
	}

	task, err := s.store.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, task, readCacheTTL); err != nil {
		log.Warn("failed to populate cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return task, nil
}

// List returns the owner's tasks matching filters, serving from cache when
// possible. Filters are conjunctive and all optional.
func (s *TaskService) List(
	ctx context.Context,
	ownerID int64,
	filters store.TaskFilters,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := taskListCacheKey(ownerID, filters)

	var cached []*domain.Task
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("cache read failed, falling through to store",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	if hit {
		return cached, nil
	}

	tasks, err := s.store.List(ctx, ownerID, filters)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, tasks, readCacheTTL); err != nil {
		log.Warn("failed to populate cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return tasks, nil
}

// Update applies a partial mutation to the owner's task and invalidates the
// owner's cached reads for it. Returns store.ErrTaskNotFound if no row
// matched.
func (s *TaskService) Update(
	ctx context.Context,
	ownerID int64,
	id uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	task, err := s.store.Update(ctx, ownerID, id, update)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID, id)

	return task, nil
}

// Delete removes the owner's task and invalidates the owner's cached reads
// for it. Returns store.ErrTaskNotFound if nothing was deleted.
func (s *TaskService) Delete(ctx context.Context, ownerID int64, id uuid.UUID) error {
	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.invalidate(ctx, ownerID, id)

	return nil
}

// invalidate deletes the item cache entry and the unfiltered list entry for
// the owner. Filtered list entries are deliberately not touched (see the
// TaskService doc comment). A failed delete is logged; the write that
// triggered it has already succeeded.
func (s *TaskService) invalidate(ctx context.Context, ownerID int64, id uuid.UUID) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	keys := []string{
		taskCacheKey(ownerID, id),
		taskListCacheKey(ownerID, store.TaskFilters{}),
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn("cache invalidation failed; stale entries expire via TTL",
			slog.Int64("owner_id", ownerID),
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskgram/api/internal/domain"
	"github.com/taskgram/api/internal/store"
)

// fakeTaskStore is an in-memory store.TaskStore keyed by (owner, id).
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[int64]map[uuid.UUID]*domain.Task

	getCalls  int
	listCalls int
	failNext  error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[int64]map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if f.tasks[task.OwnerID] == nil {
		f.tasks[task.OwnerID] = make(map[uuid.UUID]*domain.Task)
	}
	copied := *task
	f.tasks[task.OwnerID][task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, ownerID int64, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	task, ok := f.tasks[ownerID][id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) List(_ context.Context, ownerID int64, filters store.TaskFilters) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	result := make([]*domain.Task, 0)
	for _, task := range f.tasks[ownerID] {
		if filters.Status != nil && task.Status != *filters.Status {
			continue
		}
		if filters.Priority != nil && task.Priority != *filters.Priority {
			continue
		}
		copied := *task
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakeTaskStore) Update(_ context.Context, ownerID int64, id uuid.UUID, update store.TaskUpdate) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	task, ok := f.tasks[ownerID][id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.DescriptionSet {
		task.Description = update.Description
	}
	if update.DueDateSet {
		task.DueDate = update.DueDate
	}
	task.UpdatedAt = time.Now().UTC()
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, ownerID int64, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if _, ok := f.tasks[ownerID][id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks[ownerID], id)
	return nil
}

func (f *fakeTaskStore) FindDueSoon(_ context.Context, ownerID int64, now time.Time, window time.Duration) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]*domain.Task, 0)
	for _, task := range f.tasks[ownerID] {
		if task.Status != domain.TaskStatusPending || task.DueDate == nil {
			continue
		}
		if task.DueDate.Before(now) || task.DueDate.After(now.Add(window)) {
			continue
		}
		copied := *task
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakeTaskStore) DistinctOwnerIDs(_ context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owners := make([]int64, 0, len(f.tasks))
	for ownerID := range f.tasks {
		owners = append(owners, ownerID)
	}
	return owners, nil
}

// fakeCache is an in-memory Cache that records invalidations.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string

	getErr    error
	setErr    error
	deleteErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	for _, key := range keys {
		delete(c.entries, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

func newTestService(t *testing.T) (*TaskService, *fakeTaskStore, *fakeCache) {
	t.Helper()
	taskStore := newFakeTaskStore()
	cache := newFakeCache()
	svc, err := NewTaskService(taskStore, cache, testLogger())
	require.NoError(t, err)
	return svc, taskStore, cache
}

func TestNewTaskService(t *testing.T) {
	t.Parallel()

	_, err := NewTaskService(nil, newFakeCache(), testLogger())
	assert.Error(t, err)

	_, err = NewTaskService(newFakeTaskStore(), nil, testLogger())
	assert.Error(t, err)

	_, err = NewTaskService(newFakeTaskStore(), newFakeCache(), nil)
	assert.Error(t, err)
}

func TestTaskServiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("persists and invalidates", func(t *testing.T) {
		t.Parallel()
		svc, taskStore, cache := newTestService(t)
		ctx := context.Background()

		task, err := svc.Create(ctx, 42, CreateTaskInput{Title: "write report"})
		require.NoError(t, err)
		require.NotNil(t, task)
		assert.Equal(t, domain.TaskStatusPending, task.Status)

		stored, err := taskStore.GetByID(ctx, 42, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "write report", stored.Title)

		assert.Contains(t, cache.deleted, taskCacheKey(42, task.ID))
		assert.Contains(t, cache.deleted, taskListCacheKey(42, store.TaskFilters{}))
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		t.Parallel()
		svc, taskStore, _ := newTestService(t)

		task, err := svc.Create(context.Background(), 42, CreateTaskInput{Title: ""})
		assert.Nil(t, task)
		assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)
		assert.Empty(t, taskStore.tasks[42])
	})

	t.Run("store failure propagates", func(t *testing.T) {
		t.Parallel()
		svc, taskStore, _ := newTestService(t)
		taskStore.failNext = errors.New("connection lost")

		_, err := svc.Create(context.Background(), 42, CreateTaskInput{Title: "x"})
		assert.Error(t, err)
	})
}

func TestTaskServiceGetByID(t *testing.T) {
	t.Parallel()

	t.Run("miss populates cache, second read hits", func(t *testing.T) {
		t.Parallel()
		svc, taskStore, _ := newTestService(t)
		ctx := context.Background()

		created, err := svc.Create(ctx, 42, CreateTaskInput{Title: "cached read"})
		require.NoError(t, err)

		storeReadsBefore := taskStore.getCalls

		first, err := svc.GetByID(ctx, 42, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, first.ID)
		assert.Equal(t, storeReadsBefore+1, taskStore.getCalls)

		second, err := svc.GetByID(ctx, 42, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, second.ID)
		assert.Equal(t, storeReadsBefore+1, taskStore.getCalls,
			"second read should be served from cache")
	})

	t.Run("cross-owner read is not found", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		ctx := context.Background()

		created, err := svc.Create(ctx, 42, CreateTaskInput{Title: "private"})
		require.NoError(t, err)

		_, err = svc.GetByID(ctx, 43, created.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("broken cache degrades to the store", func(t *testing.T) {
		t.Parallel()
		svc, _, cache := newTestService(t)
		ctx := context.Background()

		created, err := svc.Create(ctx, 42, CreateTaskInput{Title: "resilient"})
		require.NoError(t, err)

		cache.getErr = errors.New("redis down")
		cache.setErr = errors.New("redis down")

		got, err := svc.GetByID(ctx, 42, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})
}

func TestTaskServiceList(t *testing.T) {
	t.Parallel()

	t.Run("miss populates cache per filter set", func(t *testing.T) {
		t.Parallel()
		svc, taskStore, _ := newTestService(t)
		ctx := context.Background()

		_, err := svc.Create(ctx, 42, CreateTaskInput{Title: "one"})
		require.NoError(t, err)
		_, err = svc.Create(ctx, 42, CreateTaskInput{Title: "two", Status: domain.TaskStatusCompleted})
		require.NoError(t, err)

		listReadsBefore := taskStore.listCalls

		all, err := svc.List(ctx, 42, store.TaskFilters{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.Equal(t, listReadsBefore+1, taskStore.listCalls)

		again, err := svc.List(ctx, 42, store.TaskFilters{})
		require.NoError(t, err)
		assert.Len(t, again, 2)
		assert.Equal(t, listReadsBefore+1, taskStore.listCalls,
			"second unfiltered list should hit the cache")

		status := domain.TaskStatusCompleted
		completed, err := svc.List(ctx, 42, store.TaskFilters{Status: &status})
		require.NoError(t, err)
		assert.Len(t, completed, 1)
		assert.Equal(t, listReadsBefore+2, taskStore.listCalls,
			"distinct filters are distinct cache entries")
	})

	t.Run("writes invalidate the unfiltered list only", func(t *testing.T) {
		t.Parallel()
		svc, taskStore, _ := newTestService(t)
		ctx := context.Background()

		created, err := svc.Create(ctx, 42, CreateTaskInput{Title: "original"})
		require.NoError(t, err)

		// Warm both an unfiltered and a filtered entry.
		_, err = svc.List(ctx, 42, store.TaskFilters{})
		require.NoError(t, err)
		status := domain.TaskStatusPending
		_, err = svc.List(ctx, 42, store.TaskFilters{Status: &status})
		require.NoError(t, err)

		newTitle := "renamed"
		_, err = svc.Update(ctx, 42, created.ID, store.TaskUpdate{Title: &newTitle})
		require.NoError(t, err)

		listReadsBefore := taskStore.listCalls

		fresh, err := svc.List(ctx, 42, store.TaskFilters{})
		require.NoError(t, err)
		require.Len(t, fresh, 1)
		assert.Equal(t, "renamed", fresh[0].Title)
		assert.Equal(t, listReadsBefore+1, taskStore.listCalls,
			"unfiltered list must refetch after a write")

		stale, err := svc.List(ctx, 42, store.TaskFilters{Status: &status})
		require.NoError(t, err)
		require.Len(t, stale, 1)
		assert.Equal(t, "original", stale[0].Title,
			"filtered lists stay stale until their TTL expires")
		assert.Equal(t, listReadsBefore+1, taskStore.listCalls)
	})
}

func TestTaskServiceUpdate(t *testing.T) {
	t.Parallel()

	t.Run("invalidates the item entry", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		ctx := context.Background()

		created, err := svc.Create(ctx, 42, CreateTaskInput{Title: "before"})
		require.NoError(t, err)

		// Warm the item entry.
		_, err = svc.GetByID(ctx, 42, created.ID)
		require.NoError(t, err)

		newTitle := "after"
		updated, err := svc.Update(ctx, 42, created.ID, store.TaskUpdate{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Title)

		got, err := svc.GetByID(ctx, 42, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Title, "read after write must observe the new title")
	})

	t.Run("missing task is not found", func(t *testing.T) {
		t.Parallel()
		svc, _, cache := newTestService(t)

		newTitle := "whatever"
		_, err := svc.Update(context.Background(), 42, uuid.New(), store.TaskUpdate{Title: &newTitle})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.Empty(t, cache.deleted, "failed writes must not invalidate")
	})

	t.Run("invalidation failure does not fail the write", func(t *testing.T) {
		t.Parallel()
		svc, _, cache := newTestService(t)
		ctx := context.Background()

		created, err := svc.Create(ctx, 42, CreateTaskInput{Title: "sticky"})
		require.NoError(t, err)

		cache.deleteErr = errors.New("redis down")
		newTitle := "updated anyway"
		updated, err := svc.Update(ctx, 42, created.ID, store.TaskUpdate{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, "updated anyway", updated.Title)
	})
}

func TestTaskServiceDelete(t *testing.T) {
	t.Parallel()

	t.Run("removes the task and invalidates", func(t *testing.T) {
		t.Parallel()
		svc, _, cache := newTestService(t)
		ctx := context.Background()

		created, err := svc.Create(ctx, 42, CreateTaskInput{Title: "short lived"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, 42, created.ID))

		_, err = svc.GetByID(ctx, 42, created.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.Contains(t, cache.deleted, taskCacheKey(42, created.ID))
	})

	t.Run("missing task is not found", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		err := svc.Delete(context.Background(), 42, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskgram/api/internal/domain"
)

// TaskFilters narrows a List call. All fields are optional and combine
// conjunctively: a task must match every supplied filter to be returned.
type TaskFilters struct {
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDateFrom *time.Time
	DueDateTo   *time.Time
}

// Empty reports whether no filter field is set.
func (f TaskFilters) Empty() bool {
	return f.Status == nil && f.Priority == nil && f.DueDateFrom == nil && f.DueDateTo == nil
}

// TaskUpdate carries a partial mutation. Nil pointer fields are left
// untouched. Description and DueDate are nullable columns, so they carry an
// extra Set flag: Set true with a nil value writes NULL, Set false ignores
// the field entirely.
type TaskUpdate struct {
	Title    *string
	Status   *domain.TaskStatus
	Priority *domain.TaskPriority

	Description    *string
	DescriptionSet bool

	DueDate    *time.Time
	DueDateSet bool
}

// Empty reports whether the update would change nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Status == nil && u.Priority == nil &&
		!u.DescriptionSet && !u.DueDateSet
}

// TaskStore defines the interface for task persistence.
// Every operation that touches a specific task is scoped by owner ID;
// implementations must treat an (owner, id) miss and a cross-owner hit
// identically, returning ErrTaskNotFound for both.
type TaskStore interface {
	// Create persists a new task. The task must already carry its ID and
	// timestamps (see domain.NewTask).
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by owner and ID.
	// Returns ErrTaskNotFound if no matching row exists for that owner.
	GetByID(ctx context.Context, ownerID int64, id uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks matching the given filters.
	// No ordering is guaranteed beyond the database's default scan order.
	List(ctx context.Context, ownerID int64, filters TaskFilters) ([]*domain.Task, error)

	// Update applies a partial mutation and refreshes updated_at, returning
	// the updated row. Returns ErrTaskNotFound if no row matched.
	Update(ctx context.Context, ownerID int64, id uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// Delete removes a task by owner and ID (hard delete).
	// Returns ErrTaskNotFound if nothing was deleted.
	Delete(ctx context.Context, ownerID int64, id uuid.UUID) error

	// FindDueSoon returns the owner's pending tasks whose due date falls in
	// [now, now+window].
	FindDueSoon(ctx context.Context, ownerID int64, now time.Time, window time.Duration) ([]*domain.Task, error)

	// DistinctOwnerIDs enumerates every owner that has at least one task.
	DistinctOwnerIDs(ctx context.Context) ([]int64, error)
}

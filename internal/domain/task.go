package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task title exceeds MaxTitleLength.
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 255 characters")
)

// MaxTitleLength is the maximum number of characters allowed in a task title.
// It matches the varchar(255) column backing it.
const MaxTitleLength = 255

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known status value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskPriority represents the urgency classification of a task.
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is a known priority value.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task represents a single to-do item owned by one Telegram user.
// OwnerID scopes every read and mutation; it never changes after creation.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	OwnerID     int64        `json:"ownerId"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewTask creates a new Task for the given owner. It generates a new UUID,
// sets both timestamps to the same instant, and applies defaults for zero
// status/priority values. Returns an error if validation fails.
func NewTask(
	ownerID int64,
	title string,
	description *string,
	status TaskStatus,
	priority TaskPriority,
	dueDate *time.Time,
) (*Task, error) {
	if status == "" {
		status = TaskStatusPending
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.OwnerID <= 0 {
		return ErrInvalidOwnerID
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if len([]rune(t.Title)) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}

	if !t.Status.Valid() {
		return ErrInvalidStatus
	}

	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}

	return nil
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskgram/api/internal/domain"
	"github.com/taskgram/api/internal/store"
)

// OptionalString distinguishes an absent JSON field from an explicit null.
// Absent means "leave unchanged"; null means "clear the value".
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// OptionalTime distinguishes an absent JSON timestamp from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// CreateTaskRequest is the request body for POST /tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description *string    `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateTaskRequest is the request body for PUT (and PATCH) /tasks/{id}.
// Every field is optional; description and dueDate additionally distinguish
// null (clear) from absent (keep).
type UpdateTaskRequest struct {
	Title       *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description OptionalString `json:"description"`
	Status      *string        `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    *string        `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     OptionalTime   `json:"dueDate"`
}

// ListTasksQuery carries the parsed query parameters of GET /tasks.
type ListTasksQuery struct {
	Status      string `validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    string `validate:"omitempty,oneof=low medium high urgent"`
	DueDateFrom string
	DueDateTo   string
}

// ValidationIssue is one field-level failure reported in the error envelope's
// details array.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Filters converts the query into store filters. Date bounds accept RFC 3339
// timestamps or bare dates (2006-01-02).
func (q ListTasksQuery) Filters() (store.TaskFilters, error) {
	var filters store.TaskFilters

	if q.Status != "" {
		status := domain.TaskStatus(q.Status)
		filters.Status = &status
	}
	if q.Priority != "" {
		priority := domain.TaskPriority(q.Priority)
		filters.Priority = &priority
	}

	if q.DueDateFrom != "" {
		from, err := parseQueryTime(q.DueDateFrom)
		if err != nil {
			return store.TaskFilters{}, fmt.Errorf("dueDateFrom: %w", err)
		}
		filters.DueDateFrom = &from
	}
	if q.DueDateTo != "" {
		to, err := parseQueryTime(q.DueDateTo)
		if err != nil {
			return store.TaskFilters{}, fmt.Errorf("dueDateTo: %w", err)
		}
		filters.DueDateTo = &to
	}

	return filters, nil
}

func parseQueryTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return t.UTC(), nil
}

// ToStoreUpdate converts the request into the store's partial-update form.
func (r UpdateTaskRequest) ToStoreUpdate() store.TaskUpdate {
	var update store.TaskUpdate

	update.Title = r.Title
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		update.Status = &status
	}
	if r.Priority != nil {
		priority := domain.TaskPriority(*r.Priority)
		update.Priority = &priority
	}
	if r.Description.Set {
		update.DescriptionSet = true
		update.Description = r.Description.Value
	}
	if r.DueDate.Set {
		update.DueDateSet = true
		update.DueDate = r.DueDate.Value
	}

	return update
}

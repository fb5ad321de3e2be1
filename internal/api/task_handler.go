package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskgram/api/internal/api/shared"
	"github.com/taskgram/api/internal/domain"
	"github.com/taskgram/api/internal/service"
	"github.com/taskgram/api/internal/store"
)

// TaskOperations is the use-case surface the HTTP layer drives. Implemented
// by service.TaskService; narrowed here so handler tests can fake it.
type TaskOperations interface {
	Create(ctx context.Context, ownerID int64, input service.CreateTaskInput) (*domain.Task, error)
	GetByID(ctx context.Context, ownerID int64, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, ownerID int64, filters store.TaskFilters) ([]*domain.Task, error)
	Update(ctx context.Context, ownerID int64, id uuid.UUID, update store.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, ownerID int64, id uuid.UUID) error
}

// TaskHandler handles the owner-scoped /tasks endpoints.
type TaskHandler struct {
	tasks    TaskOperations
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTaskHandler creates a task handler with its dependencies.
func NewTaskHandler(tasks TaskOperations, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		tasks:    tasks,
		validate: validator.New(),
		logger:   log.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := shared.OwnerIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := ListTasksQuery{
		Status:      r.URL.Query().Get("status"),
		Priority:    r.URL.Query().Get("priority"),
		DueDateFrom: r.URL.Query().Get("dueDateFrom"),
		DueDateTo:   r.URL.Query().Get("dueDateTo"),
	}
	if err := h.validate.Struct(query); err != nil {
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			"Validation failed", validationIssues(err))
		return
	}

	filters, err := query.Filters()
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.tasks.List(r.Context(), ownerID, filters)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Keep the payload an array even when the owner has no tasks.
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	shared.RespondWithData(w, r, http.StatusOK, tasks)
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := shared.OwnerIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := pathTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), ownerID, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, task)
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := shared.OwnerIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			"Validation failed", validationIssues(err))
		return
	}

	task, err := h.tasks.Create(r.Context(), ownerID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusCreated, task)
}

// UpdateTask handles PATCH /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := shared.OwnerIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := pathTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			"Validation failed", validationIssues(err))
		return
	}

	update := req.ToStoreUpdate()
	if update.Empty() {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No fields to update")
		return
	}

	task, err := h.tasks.Update(r.Context(), ownerID, id, update)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := shared.OwnerIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := pathTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.tasks.Delete(r.Context(), ownerID, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, map[string]string{
		"message": "Task deleted successfully",
	})
}

func pathTaskID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// validationIssues flattens validator errors into the details array of the
// error envelope.
func validationIssues(err error) []ValidationIssue {
	var fieldErrs validator.ValidationErrors
	if !errorsAsValidation(err, &fieldErrs) {
		return []ValidationIssue{{Field: "request", Message: err.Error()}}
	}

	issues := make([]ValidationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, ValidationIssue{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return issues
}

func errorsAsValidation(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

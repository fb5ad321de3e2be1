package api

import (
	"errors"
	"net/http"

	"github.com/taskgram/api/internal/api/shared"
	"github.com/taskgram/api/internal/domain"
	"github.com/taskgram/api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on sentinel identity. This keeps the error taxonomy closed: handlers
// and clients switch on status, never on concrete error types.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authorization errors
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors (includes cross-owner access by design)
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors (reserved; no current operation produces one)
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		isDomainValidationError(err):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		isDomainValidationError(err):
		return "Validation failed"

	default:
		return "Internal server error"
	}
}

// isDomainValidationError groups the per-field domain sentinels so a task
// that fails entity validation maps to 400 rather than 500.
func isDomainValidationError(err error) bool {
	return errors.Is(err, domain.ErrTaskIDEmpty) ||
		errors.Is(err, domain.ErrTaskTitleEmpty) ||
		errors.Is(err, domain.ErrTaskTitleTooLong) ||
		errors.Is(err, domain.ErrInvalidOwnerID) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidPriority)
}

// HandleAPIError maps err onto the response envelope, logging the full error
// but exposing only a sanitized message. An explicit userMessage overrides
// the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

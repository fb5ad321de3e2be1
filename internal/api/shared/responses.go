package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taskgram/api/internal/redact"
)

// SuccessResponse is the envelope for every successful response:
// {"success":true,"data":...}.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorBody carries the failure details inside the error envelope.
// StatusCode mirrors the HTTP status line.
type ErrorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
	TraceID    string `json:"traceId,omitempty"`
}

// ErrorResponse is the envelope for every failed response:
// {"success":false,"error":{...}}.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// RespondWithData writes the success envelope with the given status code.
func RespondWithData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// RespondWithError writes the error envelope with the given status code and
// sanitized message. The trace ID from the request context is included when
// available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorDetails(w, r, status, message, nil)
}

// RespondWithErrorDetails writes the error envelope including structured
// field-level details (used for validation failures).
func RespondWithErrorDetails(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	details any,
) {
	traceID := GetTraceID(r.Context())

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Message:    message,
			StatusCode: status,
			Details:    details,
			TraceID:    traceID,
		},
	})
}

// RespondWithErrorAndLog writes the error envelope and logs the underlying
// error. Only the sanitized message reaches the client; the (redacted) error
// text goes to the log.
//
// Log level strategy: 5xx at ERROR, 4xx at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
) {
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Message:    userMessage,
			StatusCode: status,
			TraceID:    traceID,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

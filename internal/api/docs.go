package api

import (
	"net/http"

	"github.com/taskgram/api/internal/api/shared"
)

// openAPIDocument is a static description of the HTTP surface, served at
// /openapi.json when docs are enabled. It is maintained by hand; keep it in
// sync with the routes in cmd/server.
const openAPIDocument = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Taskgram API",
    "description": "Owner-scoped task management backend for Telegram-fronted clients.",
    "version": "1.0.0"
  },
  "paths": {
    "/health": {
      "get": {"summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
    },
    "/tasks": {
      "get": {
        "summary": "List the caller's tasks",
        "parameters": [
          {"name": "X-Telegram-Id", "in": "header", "required": true, "schema": {"type": "string"}},
          {"name": "status", "in": "query", "schema": {"type": "string", "enum": ["pending", "in_progress", "completed", "cancelled"]}},
          {"name": "priority", "in": "query", "schema": {"type": "string", "enum": ["low", "medium", "high", "urgent"]}},
          {"name": "dueDateFrom", "in": "query", "schema": {"type": "string", "format": "date-time"}},
          {"name": "dueDateTo", "in": "query", "schema": {"type": "string", "format": "date-time"}}
        ],
        "responses": {"200": {"description": "Tasks"}, "401": {"description": "Unauthorized"}}
      },
      "post": {
        "summary": "Create a task",
        "parameters": [
          {"name": "X-Telegram-Id", "in": "header", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}, "401": {"description": "Unauthorized"}}
      }
    },
    "/tasks/{id}": {
      "get": {
        "summary": "Fetch a task",
        "responses": {"200": {"description": "Task"}, "404": {"description": "Not found"}}
      },
      "put": {
        "summary": "Update a task (partial body)",
        "responses": {"200": {"description": "Updated task"}, "400": {"description": "Validation failed"}, "404": {"description": "Not found"}}
      },
      "patch": {
        "summary": "Update a task (alias of PUT)",
        "responses": {"200": {"description": "Updated task"}, "400": {"description": "Validation failed"}, "404": {"description": "Not found"}}
      },
      "delete": {
        "summary": "Delete a task",
        "responses": {"200": {"description": "Deleted"}, "404": {"description": "Not found"}}
      }
    }
  }
}`

// DocsHandler serves the static OpenAPI document. Routing decides whether it
// is mounted at all (server.docs_enabled).
func DocsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPIDocument))
	}
}

// HealthHandler reports process liveness. It sits outside the authenticated
// subtree so load balancers can probe without credentials.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithData(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

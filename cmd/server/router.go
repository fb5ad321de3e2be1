package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskgram/api/internal/api"
	apiMiddleware "github.com/taskgram/api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	telegramAuth := apiMiddleware.NewTelegramAuth(app.config.Auth.BypassTelegramAuth, app.logger)

	// Unauthenticated surface: health checks and (optionally) docs.
	r.Get("/health", api.HealthHandler())
	if app.config.Server.DocsEnabled {
		r.Get("/openapi.json", api.DocsHandler())
	}

	// Every task route requires a valid X-Telegram-Id header.
	r.Route("/tasks", func(r chi.Router) {
		r.Use(telegramAuth.Authenticate)

		r.Get("/", taskHandler.ListTasks)
		r.Post("/", taskHandler.CreateTask)
		r.Get("/{id}", taskHandler.GetTask)
		// PUT is the canonical update verb; PATCH is accepted as an alias.
		// Both take the same partial body.
		r.Put("/{id}", taskHandler.UpdateTask)
		r.Patch("/{id}", taskHandler.UpdateTask)
		r.Delete("/{id}", taskHandler.DeleteTask)
	})

	return r
}

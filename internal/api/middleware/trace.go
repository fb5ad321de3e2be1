// Package middleware contains the HTTP middleware applied around the API
// handlers.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taskgram/api/internal/api/shared"
	"github.com/taskgram/api/internal/platform/logger"
)

// NewTraceMiddleware returns middleware that adds a trace ID to the request
// context and threads a trace-annotated logger down to handlers and stores.
// It should be applied early in the chain so all subsequent handlers see the
// trace ID.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithContext(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskgram/api/internal/api/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTraceMiddlewareAttachesTraceID(t *testing.T) {
	t.Parallel()

	var seenTraceID string
	handler := NewTraceMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTraceID = shared.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Len(t, seenTraceID, shared.TraceIDLength*2, "trace ID is hex-encoded")
}

func TestTraceMiddlewareGeneratesDistinctIDs(t *testing.T) {
	t.Parallel()

	ids := make(map[string]struct{})
	handler := NewTraceMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[shared.GetTraceID(r.Context())] = struct{}{}
	}))

	for i := 0; i < 10; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	assert.Len(t, ids, 10)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskgram/api/internal/api/shared"
)

func TestParseOwnerID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		wantID int64
		wantOK bool
	}{
		{name: "simple ID", raw: "42", wantID: 42, wantOK: true},
		{name: "ID with surrounding whitespace", raw: "  42  ", wantID: 42, wantOK: true},
		{name: "max safe integer", raw: "9007199254740991", wantID: 9007199254740991, wantOK: true},
		{name: "empty", raw: "", wantOK: false},
		{name: "whitespace only", raw: "   ", wantOK: false},
		{name: "not a number", raw: "abc", wantOK: false},
		{name: "trailing garbage", raw: "42x", wantOK: false},
		{name: "decimal", raw: "4.2", wantOK: false},
		{name: "zero", raw: "0", wantOK: false},
		{name: "negative", raw: "-5", wantOK: false},
		{name: "beyond safe integer range", raw: "9007199254740992", wantOK: false},
		{name: "overflows int64", raw: "99999999999999999999", wantOK: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, ok := ParseOwnerID(tc.raw)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantID, id)
			}
		})
	}
}

func TestTelegramAuthAuthenticate(t *testing.T) {
	t.Parallel()

	nextCalled := func(gotOwner *int64, gotHasOwner *bool) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.OwnerIDFromContext(r.Context())
			*gotOwner = id
			*gotHasOwner = ok
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("valid header passes owner through context", func(t *testing.T) {
		t.Parallel()

		var (
			owner    int64
			hasOwner bool
		)
		auth := NewTelegramAuth(false, testLogger())
		handler := auth.Authenticate(nextCalled(&owner, &hasOwner))

		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set(OwnerIDHeader, "42")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, hasOwner)
		assert.Equal(t, int64(42), owner)
	})

	t.Run("rejections return 401 with the error envelope", func(t *testing.T) {
		t.Parallel()

		headers := map[string]string{
			"missing header": "",
			"non-numeric":    "abc",
			"negative":       "-5",
			"zero":           "0",
			"unsafe range":   "9007199254740992",
		}

		for name, value := range headers {
			value := value
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				auth := NewTelegramAuth(false, testLogger())
				handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler must not run")
				}))

				req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
				if value != "" {
					req.Header.Set(OwnerIDHeader, value)
				}
				rec := httptest.NewRecorder()

				handler.ServeHTTP(rec, req)

				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.JSONEq(t,
					`{"success":false,"error":{"message":"Unauthorized","statusCode":401}}`,
					rec.Body.String())
			})
		}
	})

	t.Run("bypass skips the check entirely", func(t *testing.T) {
		t.Parallel()

		var (
			owner    int64
			hasOwner bool
		)
		auth := NewTelegramAuth(true, testLogger())
		handler := auth.Authenticate(nextCalled(&owner, &hasOwner))

		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, hasOwner, "bypass leaves the context without an owner")
	})

	t.Run("OPTIONS preflight passes without a header", func(t *testing.T) {
		t.Parallel()

		auth := NewTelegramAuth(false, testLogger())
		handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

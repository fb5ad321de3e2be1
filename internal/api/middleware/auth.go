package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskgram/api/internal/api/shared"
)

// OwnerIDHeader is the header carrying the caller-asserted Telegram user ID.
// The trusted bot/web front-end sets it; this service only validates shape.
const OwnerIDHeader = "X-Telegram-Id"

// maxSafeOwnerID caps accepted identifiers at 2^53-1 so every ID round-trips
// losslessly through JSON numbers on the front-end side.
const maxSafeOwnerID = int64(1)<<53 - 1

// TelegramAuth derives the owner identifier from the X-Telegram-Id header.
// Requests with a missing or malformed header are rejected with 401 before
// any use case runs; valid requests carry the parsed owner ID in their
// context. Cross-origin preflight requests pass through untouched.
type TelegramAuth struct {
	bypass bool
	logger *slog.Logger
}

// NewTelegramAuth creates the auth middleware. bypass disables the check
// entirely — UNSAFE outside local development — and is logged loudly when
// set.
func NewTelegramAuth(bypass bool, log *slog.Logger) *TelegramAuth {
	if log == nil {
		log = slog.Default()
	}
	if bypass {
		log.Warn("telegram auth bypass is ENABLED; every /tasks request is anonymous — never run production this way")
	}
	return &TelegramAuth{
		bypass: bypass,
		logger: log.With(slog.String("component", "telegram_auth")),
	}
}

// Authenticate validates the owner header and attaches the derived owner ID
// to the request context.
func (m *TelegramAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.bypass || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ownerID, ok := ParseOwnerID(r.Header.Get(OwnerIDHeader))
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := shared.WithOwnerID(r.Context(), ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseOwnerID validates a raw header value. Valid iff: non-empty after
// trimming, parses as a base-10 integer, fits the safe-integer range, and is
// strictly positive.
func ParseOwnerID(raw string) (int64, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}

	ownerID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}

	if ownerID <= 0 || ownerID > maxSafeOwnerID {
		return 0, false
	}

	return ownerID, true
}

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Rrens/mindful-journal/internal/api/response"
	"github.com/Rrens/mindful-journal/internal/security"
)

type contextKey string

const (
	SessionIDKey contextKey = "sessionID"
)

// SessionContext extracts the session ID from the URL and adds it to context
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
		if err != nil || sessionID <= 0 {
			response.BadRequest(w, "invalid session ID")
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID gets the session ID from context
func GetSessionID(ctx context.Context) (int64, bool) {
	sessionID, ok := ctx.Value(SessionIDKey).(int64)
	return sessionID, ok
}

// StreamAuthMiddleware checks the stream token of a session route
type StreamAuthMiddleware struct {
	tokens *security.StreamTokenManager
}

// NewStreamAuthMiddleware creates a new stream auth middleware
func NewStreamAuthMiddleware(tokens *security.StreamTokenManager) *StreamAuthMiddleware {
	return &StreamAuthMiddleware{tokens: tokens}
}

// Authenticate requires a token issued for the session in context. Browsers
// cannot set headers on WebSocket requests, so the token may also come from
// the token query parameter.
func (m *StreamAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := GetSessionID(r.Context())
		if !ok {
			response.BadRequest(w, "missing session ID")
			return
		}

		token := streamToken(r)
		if token == "" {
			response.Unauthorized(w, "missing stream token")
			return
		}

		if _, err := m.tokens.Validate(token, sessionID); err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func streamToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey       contextKey = "user_id"
	userLoginKey    contextKey = "user_login"
	userRoleKey     contextKey = "user_role"
	sessionTokenKey contextKey = "session_token"
)

// SessionCookieName is the cookie the session token may be presented in as
// an alternative to the Authorization header.
const SessionCookieName = "session_token"

// SessionMiddleware resolves the opaque session token to its server-side
// record and stores the caller's identity on the request context. Requests
// without a token, or with a token that no longer resolves, proceed as
// anonymous; handlers that need an identity gate on RequireAuth.
func SessionMiddleware(sessions session.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			record, err := sessions.Get(r.Context(), token)
			if err != nil {
				if !errors.Is(err, session.ErrSessionNotFound) {
					logger.Error("Failed to resolve session", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, userIDKey, record.UserID)
			ctx = context.WithValue(ctx, userLoginKey, record.Login)
			ctx = context.WithValue(ctx, userRoleKey, record.Role)
			ctx = context.WithValue(ctx, sessionTokenKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetUserID(r.Context()); !ok {
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// GetUserID returns the authenticated user's ID from the request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// GetUserLogin returns the authenticated user's login from the request context
func GetUserLogin(ctx context.Context) (string, bool) {
	login, ok := ctx.Value(userLoginKey).(string)
	return login, ok
}

// GetUserRole returns the authenticated user's role from the request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(userRoleKey).(string)
	return role, ok
}

// GetSessionToken returns the presented session token from the request context
func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey).(string)
	return token, ok
}

// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	userstore "github.com/covertly/identity/internal/app/store/users"
	"github.com/covertly/identity/internal/app/system/apperr"
	"github.com/covertly/identity/internal/app/system/respond"
	"github.com/covertly/identity/internal/app/system/timeouts"
	"github.com/covertly/identity/internal/domain/models"
)

// UserLoader resolves a token subject to a live user record on each request,
// so deactivated or deleted accounts lose access immediately.
type UserLoader interface {
	FindByIDHex(ctx context.Context, id string) (*models.User, error)
}

// Middleware gates routes behind a valid bearer token and puts the resolved
// user into the request context for downstream handlers.
type Middleware struct {
	Tokens *TokenManager
	Users  UserLoader
	Log    *zap.Logger
}

// NewMiddleware constructs the auth gate.
func NewMiddleware(tokens *TokenManager, loader UserLoader, logger *zap.Logger) *Middleware {
	return &Middleware{Tokens: tokens, Users: loader, Log: logger}
}

type ctxKey struct{}

// CurrentUser returns the authenticated user attached by RequireAuth.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(ctxKey{}).(*models.User)
	return u, ok
}

// WithUser returns a request carrying the given user in its context.
// Exported for handler tests that bypass the middleware.
func WithUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
}

// RequireAuth extracts `Authorization: Bearer <token>`, verifies it, loads
// the subject, and rejects the request with the envelope's 401/404 taxonomy
// on any failure.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respond.Err(w, apperr.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			respond.Err(w, apperr.ErrInvalidToken)
			return
		}

		claims, err := m.Tokens.Verify(parts[1])
		if err != nil {
			respond.Err(w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		u, err := m.Users.FindByIDHex(ctx, claims.Subject)
		if err != nil {
			if err == userstore.ErrNotFound {
				respond.Err(w, apperr.ErrUserNotFound)
				return
			}
			m.Log.Error("auth: load user failed", zap.Error(err), zap.String("user_id", claims.Subject))
			respond.Err(w, apperr.ErrSystem)
			return
		}

		next.ServeHTTP(w, WithUser(r, u))
	})
}

package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/membergate/auth-service/internal/models"
	"github.com/membergate/auth-service/internal/repositories"
	"github.com/membergate/auth-service/internal/session"
	"go.uber.org/zap"
)

// AccessLevel is the authorization tier a route requires
type AccessLevel int

const (
	// LevelAuthenticated requires a session that carries a user ID
	LevelAuthenticated AccessLevel = iota + 1
	// LevelAdmin additionally requires the user to hold the admin role
	LevelAdmin
)

const userIDContextKey contextKey = "userID"

// UserGetter is the slice of the user repository the guard needs
type UserGetter interface {
	GetByID(ctx context.Context, userID int) (*models.User, error)
}

// RequireRole gates a route behind the session and, for LevelAdmin, the
// user's role. All routes that need authentication share this one guard
// instead of re-checking the session inline.
//
// Outcomes are mutually exclusive: 401 when the session carries no user ID,
// 500 when the user lookup fails, 403 when the user is missing or the role
// is insufficient, pass-through otherwise.
func RequireRole(level AccessLevel, users UserGetter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				// Session middleware not mounted; treat as unauthenticated
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, ok := sess.UserID()
			if !ok {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if level >= LevelAdmin {
				user, err := users.GetByID(r.Context(), userID)
				if err != nil {
					if errors.Is(err, repositories.ErrUserNotFound) {
						respondError(w, http.StatusForbidden, "insufficient permissions")
						return
					}
					logger.Error("failed to look up user for role check",
						zap.Error(err), zap.Int("userId", userID))
					respondError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				if user.Role != models.RoleAdmin {
					respondError(w, http.StatusForbidden, "insufficient permissions")
					return
				}
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID retrieves the authenticated user ID placed in the context by RequireRole
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int)
	return userID, ok
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

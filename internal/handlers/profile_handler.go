package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/membergate/auth-service/internal/middlewares"
	"github.com/membergate/auth-service/internal/models"
	"github.com/membergate/auth-service/internal/repositories"
	"go.uber.org/zap"
)

// ProfileService is the interface that wraps methods for profile business logic
type ProfileService interface {
	// GetUser retrieves the user record for the given user ID, or
	// repositories.ErrUserNotFound when no such user exists.
	GetUser(ctx context.Context, userID int) (*models.User, error)
}

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		profileService: profileService,
	}
}

// RegisterRoutes registers all profile handler routes behind the auth guard
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authGuard func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authGuard)
		r.Get("/profile", h.GetProfile)
	})
}

// GetProfile handles GET /profile
// @Summary Get user profile
// @Description Get the user record for the authenticated session.
// @Tags profile
// @Produce json
// @Success 200 {object} models.User "User record"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 404 {object} map[string]string "User no longer exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.profileService.GetUser(r.Context(), userID)
	if err != nil {
		// A session can outlive its user
		if errors.Is(err, repositories.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Logger.Error("failed to get user profile", zap.Error(err), zap.Int("userId", userID))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

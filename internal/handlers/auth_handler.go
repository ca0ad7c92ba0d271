package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/membergate/auth-service/internal/models"
	"github.com/membergate/auth-service/internal/repositories"
	"github.com/membergate/auth-service/internal/services"
	"github.com/membergate/auth-service/internal/session"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Register validates the request and creates a new user account.
	//
	// Client-caused failures (validation, duplicate username, disallowed
	// role) are reported as services.ErrInvalidInput or
	// repositories.ErrDuplicateUsername; anything else is a store failure.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Login authenticates a user by username and password.
	//
	// Unknown username and wrong password both surface as
	// services.ErrInvalidCredentials; anything else is a store failure.
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

// Register handles POST /register
// @Summary Register a new user
// @Description Register a new user with username, password, and optional role.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.User "Created user"
// @Failure 400 {object} map[string]string "Invalid request body, validation failure, or duplicate username"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, repositories.ErrDuplicateUsername) {
			h.RespondError(w, http.StatusBadRequest, "registration failed")
			return
		}
		h.Logger.Error("failed to register user", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.RespondJSON(w, http.StatusCreated, user)
}

// Login handles POST /login
// @Summary Login user
// @Description Authenticate with username and password. On success the session cookie is established.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} map[string]string "Login successful"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		// One generic message for unknown username and wrong password
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.RespondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Logger.Error("failed to login user", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.Logger.Error("session not found in context")
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	sess.SetUserID(user.ID)

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "login successful"})
}

// Logout handles POST /logout
// @Summary Logout user
// @Description Destroy the current session and expire the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok && !sess.Empty() {
		sess.Clear()
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

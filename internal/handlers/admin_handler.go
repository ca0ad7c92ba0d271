package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler handles admin dashboard HTTP requests
type AdminHandler struct {
	BaseHandler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all admin handler routes behind the admin guard
func (h *AdminHandler) RegisterRoutes(r chi.Router, adminGuard func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(adminGuard)
		r.Get("/admin", h.Dashboard)
	})
}

// Dashboard handles GET /admin
// @Summary Admin dashboard
// @Description Static welcome payload for admin-role sessions.
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]string "Welcome message"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "welcome to the admin dashboard"})
}

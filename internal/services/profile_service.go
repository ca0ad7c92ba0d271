package services

import (
	"context"

	"github.com/membergate/auth-service/internal/models"
)

// profileService implements profile retrieval
type profileService struct {
	userRepo UserRepository
}

// NewProfileService creates a new profile service
func NewProfileService(userRepo UserRepository) *profileService {
	return &profileService{userRepo: userRepo}
}

// GetUser retrieves the user record for the authenticated user.
// repositories.ErrUserNotFound passes through so the handler can answer 404
// for a session whose user has since disappeared.
func (s *profileService) GetUser(ctx context.Context, userID int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// Package services holds the business logic between handlers and repositories
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/membergate/auth-service/internal/models"
	"github.com/membergate/auth-service/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput marks failures caused by the request itself (bad fields,
// duplicate username); handlers map it to 400
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidCredentials is returned for both unknown-username and
// wrong-password logins so the two are indistinguishable to clients
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Create inserts a new user and fills in its assigned ID.
	// A username collision is reported as repositories.ErrDuplicateUsername.
	Create(ctx context.Context, user *models.User) error
	// GetByUsername retrieves a user by username, or
	// repositories.ErrUserNotFound when no such user exists.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByID retrieves a user by ID, or repositories.ErrUserNotFound when
	// no such user exists.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// ExistsByUsername checks if a user with the username already exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// authService implements registration and login
type authService struct {
	userRepo UserRepository
	logger   *zap.Logger

	// adminSignupEnabled gates whether role=admin is accepted from the
	// registration body. Without it, self-assigned admin is rejected.
	adminSignupEnabled bool
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, logger *zap.Logger, adminSignupEnabled bool) *authService {
	return &authService{
		userRepo:           userRepo,
		logger:             logger,
		adminSignupEnabled: adminSignupEnabled,
	}
}

// usernameRegex validates usernames: 3-32 chars, letters, digits, underscore
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// passwordRegex validates password: at least 8 chars, uppercase, lowercase, number
var passwordRegex = []*regexp.Regexp{
	regexp.MustCompile(`.{8,}`),
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`[0-9]`),
}

// Register validates the request and creates a new user account. The
// password is stored only as a bcrypt hash.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if !usernameRegex.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of letters, digits, or underscore", ErrInvalidInput)
	}

	for _, regex := range passwordRegex {
		if !regex.MatchString(req.Password) {
			return nil, fmt.Errorf("%w: password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, and one number", ErrInvalidInput)
		}
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}
	if role == models.RoleAdmin && !s.adminSignupEnabled {
		return nil, fmt.Errorf("%w: admin accounts cannot be self-registered", ErrInvalidInput)
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username already exists", ErrInvalidInput)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         role,
	}

	// The existence check above races with concurrent registrations; the
	// UNIQUE index is the authority and still surfaces the duplicate here.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user against the stored bcrypt hash. The caller
// learns only that the credentials matched or not, never which part failed.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

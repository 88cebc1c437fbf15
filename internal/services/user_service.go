package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/accountsvc/accounts-service/internal/apperrors"
	"github.com/accountsvc/accounts-service/internal/models"
)

// bcryptCost is the work factor used when hashing passwords
const bcryptCost = 12

// emailRegex validates a simple local@domain email shape
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method GetAll retrieves all users ordered by ascending ID.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// Returns apperrors.ErrNotFound when no user has the given ID.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method Create inserts a new user and sets the generated ID on it.
	//
	// Returns apperrors.ErrAlreadyExists on a unique email violation.
	Create(ctx context.Context, user *models.User) error
	// Method Update replaces a user's email, password hash and display name.
	//
	// Returns apperrors.ErrNotFound when no row matched the ID and
	// apperrors.ErrAlreadyExists on a unique email violation.
	Update(ctx context.Context, user *models.User) error
	// Method Delete removes a user by ID.
	//
	// Returns apperrors.ErrNotFound when no row matched the ID.
	Delete(ctx context.Context, userID int) error
}

// userService implements user CRUD business logic
type userService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository, logger *zap.Logger) *userService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// List returns all users projected to their public fields
func (s *userService) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]models.PublicUser, len(users))
	for i, user := range users {
		list[i] = user.Public()
	}

	return list, nil
}

// GetByID returns a single user projected to its public fields
func (s *userService) GetByID(ctx context.Context, userID int) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// Create registers a new user. Role and active flag take the store defaults.
func (s *userService) Create(ctx context.Context, req *models.UserRequest) (*models.PublicUser, error) {
	username, email, password, err := validateUserRequest(req)
	if err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  username,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Re-read the row to pick up store-generated defaults (role, created_at)
	created, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	public := created.Public()
	return &public, nil
}

// Update fully replaces a user's editable fields. The password is re-hashed
// unconditionally.
func (s *userService) Update(ctx context.Context, userID int, req *models.UserRequest) (*models.PublicUser, error) {
	username, email, password, err := validateUserRequest(req)
	if err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           userID,
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  username,
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	public := updated.Public()
	return &public, nil
}

// Delete removes a user by ID
func (s *userService) Delete(ctx context.Context, userID int) error {
	return s.userRepo.Delete(ctx, userID)
}

// validateUserRequest normalizes and validates the shared create/update body and
// returns the cleaned username, email and password
func validateUserRequest(req *models.UserRequest) (string, string, string, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	if username == "" || email == "" || password == "" {
		return "", "", "", apperrors.NewValidationError("username, email and password are required")
	}

	if n := utf8.RuneCountInString(username); n < 2 || n > 50 {
		return "", "", "", apperrors.NewValidationError("username must be between 2 and 50 characters")
	}

	if !emailRegex.MatchString(email) {
		return "", "", "", apperrors.NewValidationError("invalid email format")
	}

	if len(password) < 8 {
		return "", "", "", apperrors.NewValidationError("password must be at least 8 characters")
	}

	return username, email, password, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/accountsvc/accounts-service/internal/apperrors"
	"github.com/accountsvc/accounts-service/internal/auth"
	"github.com/accountsvc/accounts-service/internal/models"
)

// CredentialsRepository is the interface that wraps the user lookup needed for login
type CredentialsRepository interface {
	// Method GetByEmail retrieves a user by email, including the password hash.
	//
	// Returns apperrors.ErrNotFound when no user has the given email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// authService implements the login flow
type authService struct {
	userRepo       CredentialsRepository
	tokenGenerator *auth.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo CredentialsRepository, tokenGenerator *auth.TokenGenerator, logger *zap.Logger) *authService {
	return &authService{
		userRepo:       userRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// Login validates credentials and issues a signed token.
// Unknown email and wrong password both return apperrors.ErrInvalidCredentials
// so that the response does not reveal which accounts exist.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokenGenerator.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token: token,
		User:  user.Auth(),
	}, nil
}

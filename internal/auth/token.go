// Package auth handles signing and verification of access tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/accountsvc/accounts-service/internal/apperrors"
	"github.com/accountsvc/accounts-service/internal/models"
)

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret string
	expiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, expiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret: secret,
		expiry: expiry,
	}
}

// Generate creates a signed token carrying the user ID and role.
// Returns apperrors.ErrMissingSecret when no signing secret is configured.
func (tg *TokenGenerator) Generate(userID int, role models.Role) (string, error) {
	if tg.secret == "" {
		return "", apperrors.ErrMissingSecret
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  now.Add(tg.expiry).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a token's signature and expiry and returns the user ID and role
func (tg *TokenGenerator) Validate(tokenString string) (int, models.Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	})

	if err != nil {
		return 0, "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return 0, "", fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	// Extract user ID (JWT claims decode numbers as float64)
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", fmt.Errorf("sub not found in token")
	}

	roleStr, ok := claims["role"].(string)
	if !ok {
		return 0, "", fmt.Errorf("role not found in token")
	}

	role := models.Role(roleStr)
	if !role.Valid() {
		return 0, "", fmt.Errorf("unknown role in token: %s", roleStr)
	}

	return int(sub), role, nil
}

// Package auth issues and validates the bearer tokens that guard the import
// API when a signing secret is configured.
package auth

import (
	"context"
	"time"
)

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for subject, typically an
	// operator or client name.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated contents of an access token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

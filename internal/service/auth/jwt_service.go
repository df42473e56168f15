package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrWrongTokenType or ErrInvalidToken
	// when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the verified contents of an access token.
type Claims struct {
	// UserID is parsed from the token subject.
	UserID    uuid.UUID
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

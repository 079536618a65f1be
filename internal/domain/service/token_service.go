package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims of an admin access token.
type Claims struct {
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// TokenService issues and validates actor tokens for the admin API.
type TokenService interface {
	// GenerateToken creates a signed token for subject with the given capabilities.
	GenerateToken(subject string, capabilities []string) (string, error)

	// ValidateToken checks a token string and returns its claims.
	ValidateToken(tokenString string) (*Claims, error)

	// TokenDuration returns the lifetime of issued tokens.
	TokenDuration() time.Duration
}

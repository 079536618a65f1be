// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"slices"
	"time"

	"attrschema/config"
	"attrschema/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const defaultTokenDuration = 15 * time.Minute

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret []byte        // Secret key for signing access tokens.
	issuer string        // Value of the iss claim; also required on validation when set.
	ttl    time.Duration // Time-to-live for access tokens.
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	svc := &jwtService{
		secret: []byte(cfg.SecretKey.Access),
		ttl:    defaultTokenDuration,
		now:    time.Now,
	}
	if cfg.Auth != nil {
		svc.issuer = cfg.Auth.Issuer
		if cfg.Auth.TokenDuration > 0 {
			svc.ttl = cfg.Auth.TokenDuration
		}
	}

	return svc, nil
}

// GenerateToken signs an HS256 token carrying the subject and its capabilities.
func (s *jwtService) GenerateToken(subject string, capabilities []string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}

	now := s.now()
	claims := &service.Claims{
		Capabilities: slices.Clone(capabilities),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// ValidateToken verifies the signature, expiry and issuer of a token.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// TokenDuration returns the lifetime of issued tokens.
func (s *jwtService) TokenDuration() time.Duration {
	return s.ttl
}

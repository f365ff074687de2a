package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProviderClaims are the claims the external auth provider puts in the
// tokens the storefront exchanges for a session.
type ProviderClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// ParseProviderToken verifies an HS256 provider token signed with secret.
func ParseProviderToken(secret []byte, raw string) (*ProviderClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: provider secret not configured", ErrInvalidToken)
	}
	claims := &ProviderClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: subject and email are required", ErrInvalidToken)
	}
	return claims, nil
}

// SignProviderToken issues a token the way the provider does, with the
// email marked verified. Used by the CLI for local development and by tests.
func SignProviderToken(secret []byte, subject, email, name string, ttl time.Duration) (string, error) {
	claims := &ProviderClaims{
		Email:         email,
		EmailVerified: true,
		Name:          name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Package identity manages login credentials and auth tokens. Credentials
// live in their own store, separate from account profiles; provisioning keeps
// the two in step with explicit compensation on partial failure.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotFound           = errors.New("identity: credential not found")
	ErrEmailExists        = errors.New("identity: email already registered")
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
)

// Provider is the identity-service capability the rest of the system consumes:
// create/delete/update-credential keyed by opaque user id, plus verification.
type Provider interface {
	CreateUser(ctx context.Context, userID, email, password string) error
	DeleteUser(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
	Verify(ctx context.Context, email, password string) (userID string, err error)
}

// Claims are the JWT claims carried by every authenticated request.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewToken issues an HMAC-signed JWT for the given user.
func NewToken(secret, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

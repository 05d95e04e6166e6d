package adapter

import (
	"context"
	"time"
)

// TokenClaims represents the claims contained in an employee access token.
type TokenClaims struct {
	EmployeeID int64
	Name       string
	ExpiresAt  time.Time
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	// GenerateAccessToken issues a signed access token for an employee.
	GenerateAccessToken(ctx context.Context, employeeID int64, name string, ttl time.Duration) (string, error)

	// ValidateAccessToken validates an access token and returns its claims.
	ValidateAccessToken(ctx context.Context, token string) (*TokenClaims, error)
}

// Package adapters implements adapter interfaces from the application layer.
package adapters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dental-clinic/backend/internal/application/adapter"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

const tokenTypeAccess = "access"

// CustomClaims represents the custom claims for employee JWT tokens.
type CustomClaims struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name,omitempty"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

// tokenService implements the adapter.TokenService interface.
type tokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new token service instance.
func NewTokenService(secret, issuer string) adapter.TokenService {
	return &tokenService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// GenerateAccessToken issues an HS256 access token for the employee.
func (s *tokenService) GenerateAccessToken(ctx context.Context, employeeID int64, name string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := CustomClaims{
		EmployeeID: employeeID,
		Name:       name,
		TokenType:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(employeeID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *tokenService) ValidateAccessToken(ctx context.Context, tokenString string) (*adapter.TokenClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerror.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, domainerror.ErrInvalidToken
	}
	if claims.TokenType != tokenTypeAccess || claims.EmployeeID <= 0 {
		return nil, domainerror.ErrInvalidToken
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &adapter.TokenClaims{
		EmployeeID: claims.EmployeeID,
		Name:       claims.Name,
		ExpiresAt:  expiresAt,
	}, nil
}

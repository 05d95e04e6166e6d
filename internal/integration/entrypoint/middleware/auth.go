// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dental-clinic/backend/internal/application/adapter"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
	"github.com/dental-clinic/backend/internal/integration/entrypoint/dto"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// EmployeeIDKey is the context key for the authenticated employee's ID.
	EmployeeIDKey ContextKey = "employee_id"
	// EmployeeNameKey is the context key for the authenticated employee's name.
	EmployeeNameKey ContextKey = "employee_name"
)

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	tokenService adapter.TokenService
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(tokenService adapter.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate returns a Gin middleware handler that enforces JWT authentication.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Authorization header is required",
				Code:  string(domainerror.ErrCodeMissingToken),
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Invalid authorization header format",
				Code:  string(domainerror.ErrCodeInvalidToken),
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Token is required",
				Code:  string(domainerror.ErrCodeMissingToken),
			})
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Invalid or expired token",
				Code:  string(domainerror.ErrCodeInvalidToken),
			})
			return
		}

		c.Set(string(EmployeeIDKey), claims.EmployeeID)
		c.Set(string(EmployeeNameKey), claims.Name)

		c.Next()
	}
}

// GetEmployeeIDFromContext extracts the authenticated employee ID from the Gin context.
func GetEmployeeIDFromContext(c *gin.Context) (int64, bool) {
	employeeID, exists := c.Get(string(EmployeeIDKey))
	if !exists {
		return 0, false
	}
	id, ok := employeeID.(int64)
	return id, ok
}

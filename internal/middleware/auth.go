package middleware

import (
	"context"
	"strings"

	"telehealth-server/internal/models"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
	accountKey  = "account"
)

// Authenticator resolves an access token to the account it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (models.Account, error)
}

// AuthMiddleware creates a middleware for JWT authentication. The role put
// in the context is the one stored on the account, not the token claim.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		account, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			utils.HandleError(c, err)
			c.Abort()
			return
		}

		// Set user information in context for downstream handlers
		c.Set(userIDKey, account.AccountID())
		c.Set(userRoleKey, account.AccountRole())
		c.Set(accountKey, account)

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.InternalServerError(c, "User role not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				c.Next()
				return
			}
		}

		utils.Forbidden(c, "You do not have permission to access this resource.")
		c.Abort()
	}
}

// Helper function to get user ID from context
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}

// Helper function to get user role from context
func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	userRole, exists := c.Get(userRoleKey)
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.Role)
	return role, ok
}

// GetAccountFromContext returns the authenticated account.
func GetAccountFromContext(c *gin.Context) (models.Account, bool) {
	v, exists := c.Get(accountKey)
	if !exists {
		return nil, false
	}
	account, ok := v.(models.Account)
	return account, ok
}

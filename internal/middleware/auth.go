package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/services"
	"github.com/temcen/stayrank/pkg/models"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
)

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

func Auth(authService TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "MISSING_AUTHORIZATION",
					"message": "Authorization header is required",
				},
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_AUTHORIZATION_FORMAT",
					"message": "Authorization header must be in format 'Bearer <token>'",
				},
			})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(tokenParts[1])
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired token",
				},
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// GetUserFromContext returns the authenticated user and role. ok is false
// when the request did not pass through Auth.
func GetUserFromContext(c *gin.Context) (userID uuid.UUID, role string, ok bool) {
	raw, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, "", false
	}
	userID, ok = raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role = c.GetString(ContextRole)
	return userID, role, true
}

// CanAccessUser reports whether the caller may read or write data of userID:
// admins may access anyone, guests only themselves.
func CanAccessUser(c *gin.Context, userID uuid.UUID) bool {
	caller, role, ok := GetUserFromContext(c)
	if !ok {
		return false
	}
	return role == services.RoleAdmin || caller == userID
}

// RequireSelfOrAdmin rejects requests whose path parameter names another
// user, unless the caller is an admin. Malformed ids are left to the handler.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.Next()
			return
		}
		if !CanAccessUser(c, userID) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Not allowed to access another user's data",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole admits only callers with the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, callerRole, ok := GetUserFromContext(c); !ok || callerRole != role {
			c.JSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient role",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

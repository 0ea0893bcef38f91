package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/pkg/models"
)

// Limiter is the part of the rate limit service the middleware needs.
type Limiter interface {
	IsAllowed(clientID, role string) (bool, *models.RateLimitInfo, error)
}

// RateLimit limits authenticated callers by user id and anonymous ones by
// client IP.
func RateLimit(limiter Limiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := "ip:" + c.ClientIP()
		role := ""
		if userID, userRole, ok := GetUserFromContext(c); ok {
			clientID = userID.String()
			role = userRole
		}

		allowed, info, err := limiter.IsAllowed(clientID, role)
		if err != nil {
			logger.WithError(err).Error("Failed to check rate limit")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"client_id": clientID,
				"role":      role,
				"limit":     info.Limit,
			}).Warn("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
				"rate_limit": info,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

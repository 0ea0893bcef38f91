package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temcen/stayrank/internal/validation"
)

// EventSchemaValidator checks a raw interaction event document.
type EventSchemaValidator interface {
	ValidateInteractionEvent(data interface{}) *validation.ValidationResult
}

// ValidateInteractionBody checks the request body against the interaction
// event schema before the handler binds it. The body is restored for the
// handler.
func ValidateInteractionBody(validator EventSchemaValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			sendValidationError(c, "BODY_READ_ERROR", "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		if len(bodyBytes) == 0 {
			sendValidationError(c, "EMPTY_BODY", "Request body is required")
			return
		}

		result := validator.ValidateInteractionEvent(bodyBytes)
		if !result.Valid {
			apiError := result.ToAPIError()
			if errorObj, ok := apiError["error"].(map[string]interface{}); ok {
				errorObj["timestamp"] = time.Now().UTC().Format(time.RFC3339)
				errorObj["path"] = c.Request.URL.Path
			}
			c.JSON(http.StatusBadRequest, apiError)
			c.Abort()
			return
		}

		c.Next()
	}
}

func sendValidationError(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
	c.Abort()
}

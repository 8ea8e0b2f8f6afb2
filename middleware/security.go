package middleware

import (
	"net/http"
	"time"

	"hippocampus/apperror"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimiter caps request bodies at maxSize bytes.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utils.ErrorResponse{
				Error:     "Request body too large",
				Details:   map[string]any{"max_bytes": maxSize},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Type:      apperror.KindValidation,
			})
			return
		}

		var w http.ResponseWriter = c.Writer
		c.Request.Body = http.MaxBytesReader(w, c.Request.Body, maxSize)
		c.Next()
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

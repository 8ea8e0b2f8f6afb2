package middleware

import (
	"time"

	"hippocampus/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestTracingMiddleware tags each request with an id, reusing a
// well-formed incoming X-Request-ID.
func RequestTracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set(utils.ContextRequestID, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// RequestLogger writes one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(utils.ContextRequestID)),
		}
		if userID := c.GetString(utils.ContextUserID); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		switch {
		case status >= 500:
			utils.Logger.Error("request", fields...)
		case status >= 400:
			utils.Logger.Warn("request", fields...)
		default:
			utils.Logger.Info("request", fields...)
		}
	}
}

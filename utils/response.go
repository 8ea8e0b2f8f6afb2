package utils

import (
	"net/http"
	"strconv"
	"time"

	"hippocampus/apperror"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Message string      `json:"message,omitempty"` // Optional message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
	Type      apperror.Kind  `json:"type"`
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status: http.StatusOK,
		Data:   data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, &Response{
		Status:  http.StatusCreated,
		Message: "Resource created successfully",
		Data:    data,
	})
}

func Message(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// WriteError renders err with the status of its kind. Internal errors never
// expose their message or details.
func WriteError(c *gin.Context, err *apperror.Error) {
	body := ErrorResponse{
		Error:     err.Message,
		Details:   err.Details,
		Timestamp: err.Timestamp.UTC().Format(time.RFC3339),
		Type:      err.Kind,
	}
	if err.Kind == apperror.KindInternal {
		body.Error = "Internal server error"
		body.Details = nil
	}
	if err.Timestamp.IsZero() {
		body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	c.AbortWithStatusJSON(err.Kind.Status(), body)
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	WriteError(c, apperror.Auth(message))
}

func BadRequest(c *gin.Context, message string) {
	WriteError(c, apperror.Validation(message))
}

func NotFound(c *gin.Context, message string) {
	WriteError(c, apperror.NotFound(message))
}

func InternalError(c *gin.Context, message string) {
	WriteError(c, apperror.Internal(nil, message))
}

func TooManyRequests(c *gin.Context, message string, retryAfter time.Duration) {
	c.Header("Retry-After", formatSeconds(retryAfter))
	WriteError(c, apperror.RateLimited(message).With("retry_after_seconds", int(retryAfter.Seconds()+0.5)))
}

func formatSeconds(d time.Duration) string {
	secs := int(d.Seconds() + 0.5)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

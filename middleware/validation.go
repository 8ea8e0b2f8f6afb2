package middleware

import (
	"net/http"

	"hippocampus/apperror"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects POST and PUT bodies that are not JSON.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut:
		default:
			c.Next()
			return
		}

		if c.Request.ContentLength != 0 && c.ContentType() != gin.MIMEJSON {
			abortWithError(c, apperror.Validation("Content-Type must be application/json").
				With("content_type", c.ContentType()))
			return
		}
		c.Next()
	}
}

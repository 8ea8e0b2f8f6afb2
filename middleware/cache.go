package middleware

import "github.com/gin-gonic/gin"

// CacheControlMiddleware sets Cache-Control on every response of the group.
func CacheControlMiddleware(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore keeps token-bearing and per-user responses out of shared caches.
func NoStore() gin.HandlerFunc {
	return CacheControlMiddleware("no-store")
}

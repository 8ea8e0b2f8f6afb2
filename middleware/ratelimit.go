package middleware

import (
	"time"

	"hippocampus/services"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
)

// Per-route quotas.
var (
	QuotaSave        = services.Quota{Requests: 10, Window: time.Minute}
	QuotaSearch      = services.Quota{Requests: 15, Window: time.Minute}
	QuotaDelete      = services.Quota{Requests: 15, Window: time.Minute}
	QuotaCreate      = services.Quota{Requests: 15, Window: time.Minute}
	QuotaList        = services.Quota{Requests: 20, Window: time.Minute}
	QuotaCollections = services.Quota{Requests: 30, Window: time.Minute}
)

// RateLimitKey is "user:{id}:route:{path}" for authenticated requests and
// "ip:{addr}:route:{path}" otherwise.
func RateLimitKey(c *gin.Context) string {
	route := routeLabel(c)
	if userID := c.GetString(utils.ContextUserID); userID != "" {
		return "user:" + userID + ":route:" + route
	}
	return "ip:" + c.ClientIP() + ":route:" + route
}

// RateLimit rejects requests beyond quota with 429 and a Retry-After header.
func RateLimit(limiter *services.RateLimiter, quota services.Quota) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := limiter.Allow(RateLimitKey(c), quota)
		if !ok {
			RateLimitedTotal.WithLabelValues(routeLabel(c)).Inc()
			utils.TrackError("rate_limit_error", routeLabel(c))
			utils.TooManyRequests(c, "Rate limit exceeded", retryAfter)
			return
		}
		c.Next()
	}
}

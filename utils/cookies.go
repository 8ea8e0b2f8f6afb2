package utils

import (
	"net/http"
	"time"

	"hippocampus/config"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	refreshCookieMaxAge = 30 * 24 * 60 * 60
	defaultAccessMaxAge = 60 * 60
)

// SetAuthCookies stores the token pair in httpOnly cookies. The access cookie
// lives until the token expires.
func SetAuthCookies(c *gin.Context, cfg config.AuthConfig, accessToken, refreshToken string, expiresAt time.Time) {
	accessMaxAge := defaultAccessMaxAge
	if !expiresAt.IsZero() {
		accessMaxAge = int(time.Until(expiresAt).Seconds())
		if accessMaxAge < 1 {
			accessMaxAge = 1
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, accessToken, accessMaxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
	if refreshToken != "" {
		c.SetCookie(RefreshTokenCookie, refreshToken, refreshCookieMaxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
	}
}

func ClearAuthCookies(c *gin.Context, cfg config.AuthConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}

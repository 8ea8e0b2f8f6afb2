package middleware

import (
	"hippocampus/apperror"
	"hippocampus/config"
	"hippocampus/services"
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessToken reads the access token from its cookie, falling back to the
// Authorization header.
func AccessToken(c *gin.Context) string {
	if token, err := c.Cookie(utils.AccessTokenCookie); err == nil && token != "" {
		return token
	}
	return services.StripBearer(c.GetHeader("Authorization"))
}

// AuthMiddleware admits requests carrying a valid, unrevoked access token. An
// expired token is refreshed transparently when a refresh cookie is present,
// and the new pair is written back as cookies.
func AuthMiddleware(auth *usecase.AuthService, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := AccessToken(c)
		if token == "" {
			utils.TrackAuthAttempt("failure", "access")
			abortWithError(c, apperror.Auth("Authentication required"))
			return
		}

		claims, err := auth.Authenticate(ctx, token)
		if usecase.IsExpired(err) {
			refreshToken, cookieErr := c.Cookie(utils.RefreshTokenCookie)
			if cookieErr != nil || refreshToken == "" {
				utils.TrackAuthAttempt("failure", "access")
				abortWithError(c, apperror.Auth("Token has expired and no refresh token is available"))
				return
			}

			pair, refreshed, refreshErr := auth.Refresh(ctx, refreshToken)
			if refreshErr != nil {
				utils.Logger.Info("token refresh failed", zap.Error(refreshErr))
				if apperror.Is(refreshErr, apperror.KindAuth) {
					utils.ClearAuthCookies(c, cfg)
				}
				abortWithError(c, refreshErr)
				return
			}

			utils.SetAuthCookies(c, cfg, pair.AccessToken, pair.RefreshToken, refreshed.ExpiresAtTime())
			token, claims, err = pair.AccessToken, refreshed, nil
		}
		if err != nil {
			utils.TrackAuthAttempt("failure", "access")
			abortWithError(c, err)
			return
		}

		c.Set(utils.ContextUserID, claims.Subject)
		c.Set(utils.ContextClaims, claims)
		c.Set(utils.ContextAccessToken, token)

		auth.EnsureUser(ctx, claims, c.Request.UserAgent())
		utils.TrackAuthAttempt("success", "access")
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthMiddleware.
func ClaimsFrom(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(utils.ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}

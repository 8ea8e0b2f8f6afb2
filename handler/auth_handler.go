package handler

import (
	"hippocampus/apperror"
	"hippocampus/config"
	"hippocampus/dto"
	"hippocampus/middleware"
	"hippocampus/services"
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func authUser(claims *services.Claims) dto.AuthUser {
	return dto.AuthUser{
		ID:       claims.Subject,
		Email:    claims.Email,
		FullName: claims.DisplayName(),
		Picture:  claims.UserMetadata.Picture,
	}
}

// LoginHandler accepts the token pair obtained from the identity provider and
// moves it into httpOnly cookies.
func LoginHandler(c *gin.Context, auth *usecase.AuthService, cfg config.AuthConfig) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, created, err := auth.Login(c.Request.Context(), req.AccessToken, c.Request.UserAgent())
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SetAuthCookies(c, cfg, services.StripBearer(req.AccessToken), req.RefreshToken, claims.ExpiresAtTime())
	utils.Logger.Info("user logged in", zap.String("user_id", claims.Subject), zap.Bool("new_user", created))

	utils.Success(c, dto.LoginResponse{
		Message:   "Login successful",
		User:      authUser(claims),
		ExpiresAt: claims.ExpiresAtTime().Unix(),
	})
}

// RefreshHandler takes the refresh token from its cookie or the body.
func RefreshHandler(c *gin.Context, auth *usecase.AuthService, cfg config.AuthConfig) {
	refreshToken, _ := c.Cookie(utils.RefreshTokenCookie)
	if refreshToken == "" {
		var req dto.RefreshRequest
		if c.Request.ContentLength != 0 {
			if !bindJSON(c, &req) {
				return
			}
		}
		refreshToken = req.RefreshToken
	}
	if refreshToken == "" {
		_ = c.Error(apperror.Auth("No refresh token available"))
		return
	}

	pair, claims, err := auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if apperror.Is(err, apperror.KindAuth) {
			utils.ClearAuthCookies(c, cfg)
		}
		_ = c.Error(err)
		return
	}

	utils.SetAuthCookies(c, cfg, pair.AccessToken, pair.RefreshToken, claims.ExpiresAtTime())
	utils.Success(c, dto.LoginResponse{
		Message:   "Token refreshed successfully",
		User:      authUser(claims),
		ExpiresAt: claims.ExpiresAtTime().Unix(),
	})
}

// LogoutHandler always clears the cookies; revocation failures are logged.
func LogoutHandler(c *gin.Context, auth *usecase.AuthService, cfg config.AuthConfig) {
	if err := auth.Logout(c.Request.Context(), middleware.AccessToken(c)); err != nil {
		utils.Logger.Warn("failed to revoke access token", zap.Error(err))
	}

	utils.ClearAuthCookies(c, cfg)
	utils.Message(c, "Logged out successfully", nil)
}

// AuthStatusHandler describes the caller's cookies without failing.
func AuthStatusHandler(c *gin.Context, auth *usecase.AuthService) {
	accessToken, _ := c.Cookie(utils.AccessTokenCookie)
	refreshToken, _ := c.Cookie(utils.RefreshTokenCookie)

	status := dto.AuthStatusResponse{
		HasAccessToken:  accessToken != "",
		HasRefreshToken: refreshToken != "",
	}

	if accessToken != "" {
		claims, err := auth.Authenticate(c.Request.Context(), accessToken)
		if err != nil {
			status.TokenError = err.Error()
			if appErr, ok := apperror.As(err); ok {
				status.TokenError = appErr.Message
			}
		} else {
			status.IsAuthenticated = true
			status.TokenValid = true
			status.UserID = claims.Subject
			status.UserEmail = claims.Email
			status.FullName = claims.DisplayName()
			status.Picture = claims.UserMetadata.Picture
			status.TokenExpires = claims.ExpiresAtTime().Unix()
		}
	}

	utils.Success(c, status)
}

// VerifyHandler runs behind the auth middleware and echoes the identity
// together with the stored profile, when one has been synced.
func VerifyHandler(c *gin.Context, auth *usecase.AuthService) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		_ = c.Error(apperror.Auth("Authentication required"))
		return
	}

	resp := gin.H{
		"valid":      true,
		"user":       authUser(claims),
		"expires_at": claims.ExpiresAtTime().Unix(),
	}
	if auth.Users != nil {
		profile, err := auth.Users.GetUser(c.Request.Context(), claims.Subject)
		switch {
		case err == nil:
			resp["profile"] = profile
		case !apperror.Is(err, apperror.KindNotFound):
			_ = c.Error(err)
			return
		}
	}

	utils.Success(c, resp)
}

package usecase

import (
	"context"
	"errors"
	"time"

	"hippocampus/apperror"
	"hippocampus/services"
	"hippocampus/utils"

	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// TokenRevoker is backed by Redis; AuthService.Revoker stays nil without it.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) bool
}

// AuthService checks identity-provider tokens and keeps the users collection
// in step with them.
type AuthService struct {
	Verifier  TokenVerifier
	Refresher TokenRefresher
	Revoker   TokenRevoker
	Users     *UserService
	Seen      *services.SeenUserCache
}

// Authenticate verifies an access token and rejects revoked ones. Expired
// tokens fail with an error wrapping services.ErrTokenExpired.
func (a *AuthService) Authenticate(ctx context.Context, accessToken string) (*services.Claims, error) {
	claims, err := a.Verifier.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	if a.Revoker != nil && a.Revoker.IsRevoked(ctx, services.StripBearer(accessToken)) {
		return nil, apperror.Auth("Token has been revoked")
	}
	return claims, nil
}

// Refresh exchanges the refresh token and verifies the access token it yields.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, *services.Claims, error) {
	if a.Refresher == nil {
		return nil, nil, apperror.Auth("Token refresh is not available")
	}

	pair, err := a.Refresher.Refresh(ctx, refreshToken)
	if err != nil {
		utils.TrackAuthAttempt("failure", "refresh")
		return nil, nil, err
	}

	claims, err := a.Verifier.Verify(pair.AccessToken)
	if err != nil {
		utils.TrackAuthAttempt("failure", "refresh")
		return nil, nil, err
	}

	utils.TrackAuthAttempt("success", "refresh")
	return pair, claims, nil
}

// Login verifies the access token handed over by the client and records the
// sign-in. It reports whether the user document was created.
func (a *AuthService) Login(ctx context.Context, accessToken, userAgent string) (*services.Claims, bool, error) {
	claims, err := a.Authenticate(ctx, accessToken)
	if err != nil {
		utils.TrackAuthAttempt("failure", "login")
		return nil, false, err
	}

	created := false
	if a.Users != nil {
		created, err = a.Users.SyncUser(ctx, claims.User(), userAgent)
		if err != nil {
			return nil, false, err
		}
		if a.Seen != nil {
			a.Seen.MarkSeen(ctx, claims.Subject)
		}
	}

	utils.TrackAuthAttempt("success", "login")
	return claims, created, nil
}

// Logout revokes a still-valid access token until it expires. Invalid or
// expired tokens have nothing left to revoke.
func (a *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" || a.Revoker == nil {
		return nil
	}

	claims, err := a.Verifier.Verify(accessToken)
	if err != nil {
		return nil
	}
	if a.Seen != nil {
		a.Seen.Forget(ctx, claims.Subject)
	}
	return a.Revoker.Revoke(ctx, services.StripBearer(accessToken), claims.ExpiresAtTime())
}

// EnsureUser syncs the user on the first request seen within the cache TTL.
// Failures are logged; they never fail the request.
func (a *AuthService) EnsureUser(ctx context.Context, claims *services.Claims, userAgent string) {
	if a.Users == nil || claims == nil {
		return
	}
	if a.Seen != nil && !a.Seen.MarkSeen(ctx, claims.Subject) {
		return
	}
	if _, err := a.Users.SyncUser(ctx, claims.User(), userAgent); err != nil {
		if a.Seen != nil {
			a.Seen.Forget(ctx, claims.Subject)
		}
		utils.Logger.Warn("failed to sync user", zap.String("user_id", claims.Subject), zap.Error(err))
	}
}

// IsExpired reports whether err came from an expired access token.
func IsExpired(err error) bool {
	return errors.Is(err, services.ErrTokenExpired)
}

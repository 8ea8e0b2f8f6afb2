package services

import (
	"errors"
	"strings"
	"time"

	"hippocampus/apperror"
	"hippocampus/config"
	"hippocampus/model"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired marks a well-formed token whose exp is in the past. The auth
// middleware uses it to decide whether a refresh is worth attempting.
var ErrTokenExpired = errors.New("token has expired")

type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

type AppMetadata struct {
	Provider  string   `json:"provider,omitempty"`
	Providers []string `json:"providers,omitempty"`
}

// Claims is the payload the identity provider signs into access tokens.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	Role         string       `json:"role,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	AppMetadata  AppMetadata  `json:"app_metadata"`
	jwt.RegisteredClaims
}

// DisplayName prefers full_name and falls back to name.
func (c *Claims) DisplayName() string {
	if c.UserMetadata.FullName != "" {
		return c.UserMetadata.FullName
	}
	return c.UserMetadata.Name
}

// ExpiresAtTime returns the exp claim, zero when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// User maps the claims onto the stored account.
func (c *Claims) User() *model.User {
	return &model.User{
		ID:        c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		FullName:  c.DisplayName(),
		Picture:   c.UserMetadata.Picture,
		Issuer:    c.Issuer,
		Provider:  c.AppMetadata.Provider,
		Providers: c.AppMetadata.Providers,
	}
}

type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewTokenVerifier(cfg config.AuthConfig) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(cfg.Audience),
			jwt.WithIssuer(cfg.Issuer()),
			jwt.WithExpirationRequired(),
		),
	}
}

// StripBearer removes an optional "Bearer " prefix.
func StripBearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// Verify checks signature, audience, issuer and expiry. Expired tokens fail
// with an auth error wrapping ErrTokenExpired.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	token = StripBearer(token)
	if token == "" {
		return nil, apperror.Auth("Missing access token")
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			appErr := apperror.Auth("Token has expired")
			appErr.Err = ErrTokenExpired
			return nil, appErr
		}
		appErr := apperror.Auth("Invalid token")
		appErr.Err = err
		return nil, appErr
	}

	if claims.Subject == "" {
		return nil, apperror.Auth("Invalid token: missing user ID")
	}
	return claims, nil
}

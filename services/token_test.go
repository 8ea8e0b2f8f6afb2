package services

import (
	"errors"
	"testing"
	"time"

	"hippocampus/apperror"
	"hippocampus/config"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-with-enough-length-123456"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret: testSecret,
		IDPURL:    "https://idp.example.com",
		Audience:  "authenticated",
	}
}

func signToken(t *testing.T, claims *Claims, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func validClaims() *Claims {
	return &Claims{
		Email: "ada@example.com",
		Role:  "authenticated",
		UserMetadata: UserMetadata{
			FullName: "Ada Lovelace",
			Picture:  "https://example.com/ada.png",
		},
		AppMetadata: AppMetadata{Provider: "google", Providers: []string{"google"}},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "https://idp.example.com/auth/v1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyValidToken(t *testing.T) {
	v := NewTokenVerifier(testAuthConfig())
	token := signToken(t, validClaims(), testSecret, jwt.SigningMethodHS256)

	for _, raw := range []string{token, "Bearer " + token, "bearer  " + token} {
		claims, err := v.Verify(raw)
		if err != nil {
			t.Fatalf("Verify(%.10q...) error = %v", raw, err)
		}
		if claims.Subject != "user-123" || claims.Email != "ada@example.com" {
			t.Errorf("claims = %+v", claims)
		}
		if claims.DisplayName() != "Ada Lovelace" {
			t.Errorf("DisplayName() = %q", claims.DisplayName())
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewTokenVerifier(testAuthConfig())

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"anon"}

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example.com/auth/v1"

	noSubject := validClaims()
	noSubject.Subject = ""

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name        string
		token       string
		wantExpired bool
	}{
		{"empty", "", false},
		{"garbage", "not-a-jwt", false},
		{"expired", signToken(t, expired, testSecret, jwt.SigningMethodHS256), true},
		{"wrong secret", signToken(t, validClaims(), "another-secret-entirely-000000000", jwt.SigningMethodHS256), false},
		{"wrong algorithm", signToken(t, validClaims(), testSecret, jwt.SigningMethodHS512), false},
		{"wrong audience", signToken(t, wrongAudience, testSecret, jwt.SigningMethodHS256), false},
		{"wrong issuer", signToken(t, wrongIssuer, testSecret, jwt.SigningMethodHS256), false},
		{"missing subject", signToken(t, noSubject, testSecret, jwt.SigningMethodHS256), false},
		{"missing expiry", signToken(t, noExpiry, testSecret, jwt.SigningMethodHS256), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !apperror.Is(err, apperror.KindAuth) {
				t.Fatalf("Verify() error = %v, want auth error", err)
			}
			if got := errors.Is(err, ErrTokenExpired); got != tt.wantExpired {
				t.Errorf("errors.Is(err, ErrTokenExpired) = %v, want %v", got, tt.wantExpired)
			}
		})
	}
}

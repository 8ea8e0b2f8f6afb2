package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"hippocampus/apperror"
	"hippocampus/config"

	"github.com/m-mizutani/goerr/v2"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

type idpError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// IdentityClient talks to the identity provider's token endpoint.
type IdentityClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewIdentityClient(cfg config.AuthConfig) *IdentityClient {
	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IdentityClient{
		baseURL:    strings.TrimRight(cfg.IDPURL, "/"),
		anonKey:    cfg.IDPAnonKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Refresh exchanges a refresh token for a new token pair.
func (c *IdentityClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.Auth("No refresh token available")
	}

	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode refresh request")
	}

	url := c.baseURL + "/auth/v1/token?grant_type=refresh_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Upstream(err, "Identity provider is unavailable").
			With("service", "identity")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperror.Upstream(err, "Failed to read identity provider response").
			With("service", "identity")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, apperror.Upstream(
			goerr.New("identity provider error", goerr.V("status", resp.StatusCode)),
			"Identity provider is unavailable").
			With("service", "identity")
	}

	if resp.StatusCode != http.StatusOK {
		var idpErr idpError
		_ = json.Unmarshal(raw, &idpErr)
		msg := firstNonEmpty(idpErr.ErrorDescription, idpErr.Msg, idpErr.Error, "Token refresh failed")
		return nil, apperror.Auth(msg).With("status", resp.StatusCode)
	}

	var pair TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, apperror.Internal(err, "Invalid identity provider response")
	}
	if pair.AccessToken == "" {
		return nil, apperror.Internal(nil, "Identity provider returned no access token")
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return &pair, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"hippocampus/utils"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const blacklistPrefix = "blacklist:access:"

// NewRedisClient parses the URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse Redis URL")
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to Redis", goerr.V("addr", opts.Addr))
	}
	return client, nil
}

// TokenBlacklist stores revoked access tokens until they would expire anyway.
type TokenBlacklist struct {
	Client *redis.Client
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{Client: client}
}

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistPrefix + hex.EncodeToString(sum[:])
}

// Revoke blacklists token until expiresAt. Tokens already past expiry are a no-op.
func (tb *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if expiresAt.IsZero() {
		ttl = 24 * time.Hour
	}
	if ttl <= 0 {
		return nil
	}

	if err := tb.Client.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to blacklist token")
	}
	return nil
}

// IsRevoked reports whether the token was revoked. Lookup failures are
// logged and treated as not revoked.
func (tb *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	n, err := tb.Client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		utils.Logger.Warn("token blacklist lookup failed", zap.Error(err))
		return false
	}
	return n > 0
}

func (tb *TokenBlacklist) Ping(ctx context.Context) error {
	return tb.Client.Ping(ctx).Err()
}

func (tb *TokenBlacklist) Close() error {
	return tb.Client.Close()
}

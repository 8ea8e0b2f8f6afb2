package services

import (
	"context"
	"sync"
	"time"

	"hippocampus/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const seenUserPrefix = "user:seen:"

// SeenUserCache remembers which users were recently synced to the users
// collection so the auth middleware does not upsert on every request. With
// Redis configured the marker is shared between instances; otherwise, or when
// Redis fails, an in-process map is used.
type SeenUserCache struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	local map[string]time.Time
	now   func() time.Time
}

func NewSeenUserCache(client *redis.Client, ttl time.Duration) *SeenUserCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SeenUserCache{
		client: client,
		ttl:    ttl,
		local:  make(map[string]time.Time),
		now:    time.Now,
	}
}

// MarkSeen records userID and reports whether it was absent, i.e. whether the
// caller should sync the user now.
func (c *SeenUserCache) MarkSeen(ctx context.Context, userID string) bool {
	if c.client != nil {
		set, err := c.client.SetNX(ctx, seenUserPrefix+userID, "1", c.ttl).Result()
		if err == nil {
			return set
		}
		utils.Logger.Warn("seen-user cache unavailable, using local cache", zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if until, ok := c.local[userID]; ok && now.Before(until) {
		return false
	}
	c.local[userID] = now.Add(c.ttl)
	return true
}

// Forget drops the marker so the next request syncs the user again.
func (c *SeenUserCache) Forget(ctx context.Context, userID string) {
	if c.client != nil {
		if err := c.client.Del(ctx, seenUserPrefix+userID).Err(); err != nil {
			utils.Logger.Warn("failed to clear seen-user marker", zap.Error(err))
		}
	}

	c.mu.Lock()
	delete(c.local, userID)
	c.mu.Unlock()
}

// Sweep drops expired local markers and returns how many were removed.
func (c *SeenUserCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, until := range c.local {
		if !now.Before(until) {
			delete(c.local, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired local markers every interval until ctx is done.
func (c *SeenUserCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				utils.Logger.Debug("swept expired seen-user markers", zap.Int("removed", n))
			}
		}
	}
}

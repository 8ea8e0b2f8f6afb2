package services

import (
	"context"
	"sync"
	"time"

	"hippocampus/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Quota allows Requests per Window for one key.
type Quota struct {
	Requests int
	Window   time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key. A bucket starts full with
// Requests tokens and refills at Requests per Window.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

// Allow takes a token for key. When the bucket is empty it returns false and
// how long until the next token is available.
func (rl *RateLimiter) Allow(key string, quota Quota) (bool, time.Duration) {
	if quota.Requests <= 0 || quota.Window <= 0 {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.limiters[key]
	if !ok {
		every := quota.Window / time.Duration(quota.Requests)
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), quota.Requests)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	r := entry.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, quota.Window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Sweep drops buckets not used for idle and returns how many were removed.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Run sweeps idle buckets every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
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
			if n := rl.Sweep(idle); n > 0 {
				utils.Logger.Debug("swept idle rate limiters", zap.Int("removed", n))
			}
		}
	}
}

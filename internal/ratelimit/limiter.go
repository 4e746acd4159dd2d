// Package ratelimit throttles update handling per chat.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a chat may be served right now.
type Limiter interface {
	Allow(ctx context.Context, chatID int64) (bool, error)
}

// MemoryLimiter enforces a fixed per-minute window per chat in process
// memory.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[int64]*window
	perMinute int
	now       func() time.Time
}

type window struct {
	start time.Time
	count int
}

// NewMemoryLimiter builds an in-memory Limiter.
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}

	return &MemoryLimiter{
		windows:   make(map[int64]*window),
		perMinute: perMinute,
		now:       time.Now,
	}
}

// Allow consumes one slot from the chat's current window.
func (l *MemoryLimiter) Allow(_ context.Context, chatID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[chatID]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.windows[chatID] = &window{start: now, count: 1}
		return true, nil
	}

	if w.count >= l.perMinute {
		return false, nil
	}

	w.count++
	return true, nil
}

// RedisLimiter enforces the same window through Redis, shared across
// instances.
type RedisLimiter struct {
	client    *redis.Client
	perMinute int
}

// NewRedisLimiter builds a Redis-backed Limiter.
func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}

	return &RedisLimiter{
		client:    client,
		perMinute: perMinute,
	}
}

// Allow increments the chat's window counter, creating it with a one-minute
// expiry on first use.
func (l *RedisLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	key := fmt.Sprintf("ratelimit:chat:%d", chatID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, time.Minute).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(l.perMinute), nil
}

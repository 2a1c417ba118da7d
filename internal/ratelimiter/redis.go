package ratelimiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every API instance that
// points at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

// Allow fails open: when Redis cannot be reached the request is let through.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	k := rl.prefix + key

	count, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		return true, 0
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, k, rl.window).Err(); err != nil {
			return true, 0
		}
	}
	if count <= int64(rl.limit) {
		return true, 0
	}

	ttl, err := rl.client.TTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		// key lost its expiry; restore it so the client is not locked out
		rl.client.Expire(ctx, k, rl.window)
		ttl = rl.window
	}
	return false, ttl
}

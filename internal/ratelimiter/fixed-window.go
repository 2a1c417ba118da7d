package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]int //string:client key, int count
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]int),
		limit:   limit,
		window:  window,
	}
}

func (rl *FixedWindowRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	count, exists := rl.clients[key]
	if exists && count >= rl.limit {
		return false, rl.window
	}
	if !exists {
		time.AfterFunc(rl.window, func() { rl.resetCount(key) })
	}
	rl.clients[key]++
	return true, 0
}

func (rl *FixedWindowRateLimiter) resetCount(key string) {
	rl.Lock()
	delete(rl.clients, key)
	rl.Unlock()
}

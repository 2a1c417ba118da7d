package ratelimiter

import (
	"context"
	"time"
)

// Limiter decides whether a client key may make another request. When it
// refuses, the duration is how long the client should wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

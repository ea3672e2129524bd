// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Store increments the counter of key in the current window and reports the
// new count and when that window closes. The first hit opens the window.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the number of whole seconds until the window resets, at least 1.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}
	return secs
}

type Limiter struct {
	store  Store
	window time.Duration
}

func NewLimiter(store Store, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, window: window}
}

// Allow counts one request for id against limit.
func (l *Limiter) Allow(ctx context.Context, id string, limit int) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, "ratelimit:api_key:"+id, l.window)
	if err != nil {
		return Result{}, err
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

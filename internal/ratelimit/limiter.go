package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Delete(ctx context.Context, key string) error
}

// Limiter is a fixed-window attempt counter.
type Limiter struct {
	store  WindowStore
	max    int
	window time.Duration
}

func NewLimiter(store WindowStore, max int, window time.Duration) *Limiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Limiter{store: store, max: max, window: window}
}

// Allow counts one attempt against key. A non-positive max disables limiting.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.max <= 0 {
		return true, 0, nil
	}
	if l.store == nil {
		return false, 0, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, windowKey(key), l.window)
	if err != nil {
		return false, 0, err
	}
	if count > int64(l.max) {
		return false, ttl, nil
	}
	return true, 0, nil
}

func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l.store == nil {
		return nil
	}
	return l.store.Delete(ctx, windowKey(key))
}

func windowKey(key string) string {
	return "rate:login:" + strings.ToLower(key)
}

// Package ratelimit provides token-bucket rate limiters for engine calls and
// per-tenant request budgets.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// KeyedLimiter rate-limits calls per key (one engine endpoint, one command)
// using token buckets created on first use.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	rps   rate.Limit
	burst int
}

// NewKeyedLimiter creates a limiter allowing rps requests per second per key.
// Burst is at least one.
func NewKeyedLimiter(rps float64, burst int) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (kl *KeyedLimiter) limiter(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	l, ok := kl.limiters[key]
	if !ok {
		l = rate.NewLimiter(kl.rps, kl.burst)
		kl.limiters[key] = l
	}
	return l
}

// Wait blocks until a token is available for key, or ctx is cancelled.
// A nil limiter never blocks.
func (kl *KeyedLimiter) Wait(ctx context.Context, key string) error {
	if kl == nil {
		return nil
	}
	if err := kl.limiter(key).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", key, err)
	}
	return nil
}

package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLimiter_Wait(t *testing.T) {
	kl := NewKeyedLimiter(100, 10)

	// Should not block at high rate.
	err := kl.Wait(context.Background(), "http://localhost:9200")
	require.NoError(t, err)
}

func TestKeyedLimiter_Nil(t *testing.T) {
	var kl *KeyedLimiter
	assert.NoError(t, kl.Wait(context.Background(), "anything"))
}

func TestKeyedLimiter_CancelledContext(t *testing.T) {
	// Create a very restrictive limiter.
	kl := NewKeyedLimiter(0.001, 1)

	// Consume the burst.
	require.NoError(t, kl.Wait(context.Background(), "engine-a"))

	// Next call with cancelled context should error.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := kl.Wait(ctx, "engine-a")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit engine-a")

	// Other keys have their own bucket.
	assert.NoError(t, kl.Wait(context.Background(), "engine-b"))
}

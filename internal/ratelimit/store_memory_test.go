package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(func() time.Time { return now })
	limit := Limit{Requests: 2, Window: time.Minute}

	first, err := store.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	now = now.Add(10 * time.Second)
	second, err := store.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := store.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 50, third.RetryAfter, "the oldest hit leaves the window in 50s")

	other, err := store.Allow(ctx, "other", limit)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	now = now.Add(51 * time.Second)
	again, err := store.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.True(t, again.Allowed)
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowRefills(t *testing.T) {
	l := New()
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("polygon", 2, 1))
	assert.True(t, l.Allow("polygon", 2, 1))
	assert.False(t, l.Allow("polygon", 2, 1))
	assert.True(t, l.Allow("other", 2, 1))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("polygon", 2, 1))
	assert.False(t, l.Allow("polygon", 2, 1))
}

func TestWaitHonoursContext(t *testing.T) {
	l := New()
	require.NoError(t, l.Wait(context.Background(), "k", 1, 0.001))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, "k", 1, 0.001), context.DeadlineExceeded)
}

func TestWaitReturnsAfterRefill(t *testing.T) {
	l := New()
	require.NoError(t, l.Wait(context.Background(), "k", 1, 100))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "k", 1, 100))
	assert.Less(t, time.Since(start), time.Second)
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLimiter(t *testing.T, perMinute int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	l, err := NewLimiter("redis://"+s.Addr(), perMinute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, s
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	ctx := context.Background()
	l, _ := setupTestLimiter(t, 3)
	fixed := time.Date(2025, 10, 20, 12, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 50*time.Second, d.ResetIn)

	other, err := l.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestLimiter_NewWindowResets(t *testing.T) {
	ctx := context.Background()
	l, _ := setupTestLimiter(t, 1)
	now := time.Date(2025, 10, 20, 12, 0, 59, 0, time.UTC)
	l.now = func() time.Time { return now }

	d, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	d, err = l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	now = now.Add(2 * time.Second)
	d, err = l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_SetsExpiry(t *testing.T) {
	ctx := context.Background()
	l, s := setupTestLimiter(t, 10)
	fixed := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	_, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)

	key := l.key("user-1", fixed.Unix())
	assert.True(t, s.Exists(key))
	assert.Equal(t, window+time.Second, s.TTL(key))
}

func TestNewLimiter_BadURL(t *testing.T) {
	_, err := NewLimiter("not a url", 10)
	assert.Error(t, err)
}

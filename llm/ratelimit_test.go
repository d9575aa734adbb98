package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives a RateLimiter without real waiting. Its sleep advances the
// clock by the requested duration.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) install(r *RateLimiter) {
	r.now = func() time.Time { return c.now }
	r.sleep = func(_ context.Context, d time.Duration) error {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
		return nil
	}
}

func TestRateLimiterAllowsBurstUpToLimit(t *testing.T) {
	clock := newFakeClock()
	r := NewRateLimiter(3, time.Minute)
	clock.install(r)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Acquire(ctx))
	}

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 3, r.Pending())
}

func TestRateLimiterDelaysOverLimit(t *testing.T) {
	clock := newFakeClock()
	r := NewRateLimiter(3, time.Minute)
	clock.install(r)

	ctx := context.Background()
	require.NoError(t, r.Acquire(ctx))
	clock.now = clock.now.Add(10 * time.Second)
	require.NoError(t, r.Acquire(ctx))
	require.NoError(t, r.Acquire(ctx))

	// Fourth call must wait until the first timestamp leaves the window.
	require.NoError(t, r.Acquire(ctx))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 50*time.Second, clock.sleeps[0])
	assert.Equal(t, 3, r.Pending())
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	clock := newFakeClock()
	r := NewRateLimiter(2, time.Minute)
	clock.install(r)

	ctx := context.Background()
	require.NoError(t, r.Acquire(ctx))
	require.NoError(t, r.Acquire(ctx))
	assert.Equal(t, 2, r.Pending())

	clock.now = clock.now.Add(time.Minute + time.Second)
	assert.Equal(t, 0, r.Pending())

	require.NoError(t, r.Acquire(ctx))
	assert.Empty(t, clock.sleeps)
}

func TestRateLimiterCancellation(t *testing.T) {
	clock := newFakeClock()
	r := NewRateLimiter(1, time.Minute)
	clock.install(r)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	ctx := context.Background()
	require.NoError(t, r.Acquire(ctx))
	assert.ErrorIs(t, r.Acquire(ctx), context.Canceled)
}

func TestRateLimiterZeroLimitIsNoop(t *testing.T) {
	r := NewRateLimiter(0, time.Minute)
	assert.NoError(t, r.Acquire(context.Background()))
	assert.Equal(t, 0, r.Pending())
}

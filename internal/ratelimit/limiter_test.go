package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	return nil
}

func newLimiter(clock *fakeClock) *ratelimit.Limiter {
	return ratelimit.New(120, time.Minute,
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSleep(clock.Sleep),
	)
}

func TestLimiter_AllowsCeilingWithoutSleeping(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newLimiter(clock)

	for range 120 {
		require.NoError(t, limiter.Wait(context.Background()))
		clock.Advance(100 * time.Millisecond)
	}

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 120, limiter.Count())
}

func TestLimiter_SleepsOnRequestOverCeiling(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newLimiter(clock)

	for range 120 {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	clock.Advance(20 * time.Second)

	require.NoError(t, limiter.Wait(context.Background()))
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 41*time.Second, clock.sleeps[0])
	assert.Equal(t, 1, limiter.Count())
}

func TestLimiter_NoSleepAfterWindowPassed(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newLimiter(clock)

	for range 100 {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	clock.Advance(61 * time.Second)

	for range 30 {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 30, limiter.Count())
}

func TestLimiter_SecondWindowSleepsAgain(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newLimiter(clock)

	for range 241 {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	require.Len(t, clock.sleeps, 2)
	assert.Equal(t, 61*time.Second, clock.sleeps[0])
	assert.Equal(t, 61*time.Second, clock.sleeps[1])
}

func TestLimiter_CancelledWait(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := ratelimit.New(2, time.Minute,
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSleep(func(ctx context.Context, _ time.Duration) error {
			return ctx.Err()
		}),
	)

	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, limiter.Count())
}

func TestLimiter_Defaults(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := ratelimit.New(0, 0,
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSleep(clock.Sleep),
	)

	for range 121 {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 61*time.Second, clock.sleeps[0])
}

func TestSleep(t *testing.T) {
	t.Parallel()

	t.Run("returns after duration", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		require.NoError(t, ratelimit.Sleep(context.Background(), 10*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := ratelimit.Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

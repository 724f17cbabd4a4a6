// Package ratelimit implements the FMC request ceiling: a fixed number of
// requests per window, after which callers sleep until the window has passed.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Limiter counts requests in a window starting at the first request.
type Limiter struct {
	mu sync.Mutex

	limit  int
	window time.Duration
	margin time.Duration

	count int
	start time.Time

	now    func() time.Time
	sleep  SleepFunc
	logger fmc.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithSleep replaces the context-aware sleep.
func WithSleep(sleep SleepFunc) Option {
	return func(l *Limiter) {
		l.sleep = sleep
	}
}

// WithLogger sets the logger used to report sleeps.
func WithLogger(logger fmc.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// WithMargin sets the extra wait added to the remaining window.
func WithMargin(margin time.Duration) Option {
	return func(l *Limiter) {
		l.margin = margin
	}
}

// New creates a limiter allowing limit requests per window. Non-positive
// values fall back to the FMC defaults.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = constants.DefaultRequestsPerWindow
	}

	if window <= 0 {
		window = constants.DefaultRateWindow
	}

	l := &Limiter{
		limit:  limit,
		window: window,
		margin: constants.RateLimitMargin,
		now:    time.Now,
		sleep:  Sleep,
		logger: fmc.NopLogger{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Wait accounts for one request, sleeping first when the ceiling is reached.
// Concurrent callers queue behind a sleeping caller.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if l.count > 0 && now.Sub(l.start) > l.window {
		l.count = 0
	}

	l.count++

	if l.count == 1 {
		l.start = now

		return nil
	}

	if l.count <= l.limit {
		return nil
	}

	elapsed := now.Sub(l.start)
	if elapsed <= l.window {
		delay := l.window - elapsed + l.margin

		l.logger.Info("FMC rate limit reached, sleeping", map[string]interface{}{
			"requests": l.limit,
			"window":   l.window.String(),
			"sleep":    delay.String(),
		})

		err := l.sleep(ctx, delay)
		if err != nil {
			l.count--

			return fmt.Errorf("waiting for rate limit window: %w", err)
		}
	}

	l.count = 1
	l.start = l.now()

	return nil
}

// Count returns the number of requests in the current window.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Reset clears the window.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.count = 0
	l.start = time.Time{}
	l.mu.Unlock()
}

// Sleep waits for d unless ctx is cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

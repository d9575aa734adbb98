package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds the call rate to the generation service using a sliding
// window: at most Limit calls in any trailing Window. Acquire never errors
// except for context cancellation; it only delays. Callers are served in
// arrival order because each waiter holds the mutex while it sleeps out its
// own deadline computation and re-checks.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	calls []time.Time

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter allowing limit calls per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Acquire blocks until fewer than the limit of calls occurred in the trailing
// window, then records the call time. The read-trim-append sequence over the
// timestamp queue runs under the mutex; the wait itself does too, which keeps
// grants FIFO by arrival order.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	if r.limit <= 0 {
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		now := r.now()
		cutoff := now.Add(-r.window)

		// Trim timestamps that fell out of the window.
		kept := r.calls[:0]
		for _, t := range r.calls {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		r.calls = kept

		if len(r.calls) < r.limit {
			r.calls = append(r.calls, now)
			return nil
		}

		// Wait until the oldest recorded call leaves the window.
		wait := r.calls[0].Add(r.window).Sub(now)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Pending returns the number of calls currently inside the window.
func (r *RateLimiter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	n := 0
	for _, t := range r.calls {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

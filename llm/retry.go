package llm

import "time"

// Backoff tiers by failure class. Overload and timeout waits grow with the
// attempt number; rate-limit and other transient failures use fixed waits.
const (
	overloadedBase = 20 * time.Second
	overloadedMax  = 60 * time.Second

	timeoutBase = 15 * time.Second
	timeoutMax  = 40 * time.Second

	rateLimitedWait = 30 * time.Second
	transientWait   = 10 * time.Second
)

// backoffFor computes the wait before retrying a failed attempt.
// attempt is 1-based and counts the attempt that just failed.
func backoffFor(class FailureClass, attempt int) time.Duration {
	switch class {
	case FailureOverloaded:
		return growing(overloadedBase, overloadedMax, attempt)
	case FailureTimeout:
		return growing(timeoutBase, timeoutMax, attempt)
	case FailureRateLimited:
		return rateLimitedWait
	default:
		return transientWait
	}
}

func growing(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * base
	if d > max {
		return max
	}
	return d
}

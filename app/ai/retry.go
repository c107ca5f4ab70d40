package ai

import (
	"context"
	"time"
)

const DefaultMaxAttempts = 3

// BackoffPolicy returns the delay before retry attempt n (1-based).
type BackoffPolicy func(attempt int) time.Duration

// ExponentialBackoff doubles the base delay per attempt: 1s, 2s, 4s
// with a one-second base.
func ExponentialBackoff(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<uint(attempt-1))
	}
}

// WithRetry runs op up to maxAttempts times, sleeping per the backoff
// policy between attempts. It is generic over any fallible operation
// and is used for AI calls and destination calls alike. The last error
// is returned after exhaustion; context cancellation stops retrying
// immediately.
func WithRetry[T any](ctx context.Context, maxAttempts int, backoff BackoffPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}

	return zero, lastErr
}

package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retrier re-runs a call while it fails with a RetryableError, up to
// MaxRetries attempts.
type Retrier struct {
	Backoff func(attempt int) time.Duration
	Log     *slog.Logger
}

func (r Retrier) Do(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	backoff := r.Backoff
	if backoff == nil {
		backoff = Backoff
	}

	var out string
	var lastErr error
	for attempt := range MaxRetries {
		out, lastErr = call(ctx)
		if lastErr == nil || !IsRetryable(lastErr) {
			return out, lastErr
		}
		if r.Log != nil {
			r.Log.Warn("retryable llm error", "attempt", attempt, "error", lastErr)
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return out, lastErr
}

package hosting

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

const (
	retryMaxAttempts = 5
	retryBaseDelay   = 500 * time.Millisecond
	retryMaxDelay    = 30 * time.Second
)

// withRetry calls fn, retrying on transient and rate-limited *Errors with
// exponential backoff and jitter up to retryMaxAttempts. Any other error,
// or a non-*Error, propagates immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := retryBaseDelay

	for attempt := 0; attempt < retryMaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var hostErr *Error
		if !errors.As(err, &hostErr) || !hostErr.Retryable() {
			return err
		}
		if attempt == retryMaxAttempts-1 {
			break
		}

		jittered := delay/2 + time.Duration(rand.Int64N(int64(delay)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}

		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}

	return lastErr
}

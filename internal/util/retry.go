package util

import (
	"context"
	"fmt"
	"time"
)

// Retry runs op up to attempts times with a fixed delay between attempts.
// It stops early when op succeeds or when the context is cancelled, and
// returns the last error once attempts are exhausted. Fallback behavior on
// exhaustion belongs to the caller, not to this loop.
func Retry(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (aborted: %v)", lastErr, err)
			}
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%w (aborted: %v)", lastErr, ctx.Err())
		}
	}

	return lastErr
}

package perception

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
)

// withRetry runs one external call with bounded attempts. Only transient
// failures (timeout, rate limit) are retried; everything else, including
// context cancellation, propagates on the first attempt.
func withRetry(ctx context.Context, cfg shared.BackoffConfig, logger *slog.Logger, fn func() (*Result, error)) (*Result, error) {
	cfg = cfg.Normalize()
	delay := cfg.Initial

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = minDuration(delay*2, cfg.MaxDelay)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var pe *Error
		if !errors.As(err, &pe) || !pe.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.Warn("transient perception failure",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", err,
		)
	}

	return nil, lastErr
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

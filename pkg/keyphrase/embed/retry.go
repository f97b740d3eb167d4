package embed

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
var ErrInvalidMaxAttempts = errors.New("embed: max attempts must be positive")

// RetryWithBackoff retries an operation with exponential backoff.
// The delay starts at baseDelay and doubles after each failed attempt.
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("embedding succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("embedding failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}

// Retrying wraps a Provider and retries failed batches.
type Retrying struct {
	inner       Provider
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetrying creates a retrying decorator.
func NewRetrying(inner Provider, maxAttempts int, baseDelay time.Duration) *Retrying {
	return &Retrying{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// Embed implements Provider.
func (r *Retrying) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	var out [][]float32
	err := RetryWithBackoff(ctx, func() error {
		vecs, err := r.inner.Embed(ctx, batch)
		if err != nil {
			return err
		}
		if err := checkBatch(batch, vecs); err != nil {
			return err
		}
		out = vecs
		return nil
	}, r.maxAttempts, r.baseDelay)
	if err != nil {
		return nil, err
	}
	return out, nil
}

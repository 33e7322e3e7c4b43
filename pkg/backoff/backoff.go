package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const maxAttempts = 5

// ErrRetriesExhausted wraps the last error after all attempts failed.
var ErrRetriesExhausted = errors.New("exceeded retries")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks an error as semantic rather than transient so that Retry
// surfaces it immediately instead of retrying. Reverted calls and malformed
// responses are permanent; timeouts and rate limits are not.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// sleep is swapped out in tests.
var sleep = time.Sleep

// Retry runs fn up to 5 times with exponential backoff (1s base, 60s cap)
// between attempts. Any error is considered transient unless wrapped with
// Permanent. After exhausting attempts the last error is surfaced wrapped in
// ErrRetriesExhausted; callers decide whether that is fatal or a per-item
// skip.
func Retry[T any](ctx context.Context, l *zap.Logger, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	delay := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := fn()
		if err == nil {
			if attempt > 1 {
				l.Sugar().Infow("Succeeded after backoff",
					zap.String("operation", operation),
					zap.Int("attempt", attempt),
				)
			}
			return res, nil
		}
		if IsPermanent(err) {
			return zero, err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		l.Sugar().Errorw("Failed to call, backing off",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		sleep(delay)
		delay *= 2
		if delay > time.Second*60 {
			delay = time.Second * 60
		}
	}
	l.Sugar().Errorw("Exceeded retries",
		zap.String("operation", operation),
		zap.Error(lastErr),
	)
	return zero, fmt.Errorf("%w for %s: %v", ErrRetriesExhausted, operation, lastErr)
}

package taskqueue

import (
	"context"
	"log/slog"
	"math"
	"time"
)

const defaultMaxRetries = 3

func backoffFor(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
}

// withRetry calls fn up to maxRetries times with exponential backoff.
func withRetry[T any](ctx context.Context, maxRetries int, taskName string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(attempt)
			slog.DebugContext(ctx, "retrying notification registration",
				slog.String("task_name", taskName),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	slog.ErrorContext(ctx, "all retries exhausted for notification registration",
		slog.String("task_name", taskName),
		slog.Int("max_retries", maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return zero, lastErr
}

package dictapi

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryableError 标记可以重试的失败：传输错误（err）或上游返回的 429/5xx（status）。
type retryableError struct {
	err    error
	status int
}

func (e *retryableError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("upstream status %d", e.status)
}

func (e *retryableError) Unwrap() error { return e.err }

func retryWithBackoff(ctx context.Context, maxRetries int, initial time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		var retryErr *retryableError
		if !errors.As(lastErr, &retryErr) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := initial << uint(attempt)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

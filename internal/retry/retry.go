package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Policy struct {
	// MaxRetries is the number of additional attempts after the first call.
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      SleepFunc
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Error is returned once every attempt has failed.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, waiting BaseDelay*2^attempt between
// attempts, for at most MaxRetries+1 calls.
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return zero, permanent.err
		}
		lastErr = err

		if attempt == policy.MaxRetries {
			break
		}

		delay := Backoff(policy.BaseDelay, attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, err)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
	}

	return zero, &Error{Attempts: policy.MaxRetries + 1, Err: lastErr}
}

// Backoff returns base * 2^attempt.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return base * time.Duration(1<<uint(attempt))
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

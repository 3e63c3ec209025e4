package fn

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryOpts configures retry behavior.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      bool
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped error
// unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Retry retries f up to MaxAttempts times with exponential backoff. A
// Permanent error stops the loop at once.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	var result Result[T]
	wait := opts.InitialWait
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		result = f(ctx)
		if result.IsOk() {
			return result
		}
		var perm permanentError
		if _, err := result.Unwrap(); errors.As(err, &perm) {
			return Err[T](perm.err)
		}
		if attempt == opts.MaxAttempts-1 {
			break
		}
		if err := ctx.Err(); err != nil {
			return Err[T](err)
		}

		sleepDur := wait
		if opts.Jitter {
			sleepDur = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}
		if opts.MaxWait > 0 && sleepDur > opts.MaxWait {
			sleepDur = opts.MaxWait
		}

		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(sleepDur):
		}

		wait *= 2
		if opts.MaxWait > 0 && wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}
	return result
}

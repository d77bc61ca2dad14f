// Package retry runs an operation under a bounded retry policy.
//
// Render surfaces and scroll containers are often not ready the moment a
// highlight is resolved (an image still decoding, a PDF page still
// rasterizing). Callers retry the draw a fixed number of times with a
// growing delay, and cancel the whole sequence through the context when the
// search, zoom or viewer that started it goes away.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds a retry loop
type Policy struct {
	MaxAttempts int                             // Total attempts including the first
	Backoff     func(attempt int) time.Duration // Delay after attempt n, n starting at 1
	OnRetry     func(attempt int, err error)    // Optional callback before each retry
}

// Linear returns a policy waiting step×attempt between attempts
func Linear(maxAttempts int, step time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * step
		},
	}
}

// DefaultPolicy is the first attempt plus up to five retries, waiting
// 200ms, 400ms, ... between them
func DefaultPolicy() Policy {
	return Linear(6, 200*time.Millisecond)
}

// permanentError marks an error that must not be retried
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it without further attempts
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls op until it succeeds, returns a permanent error, the attempts run
// out or ctx is done. It returns the last error from op, or ctx.Err().
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			var p *permanentError
			errors.As(err, &p)
			return p.err
		}
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if policy.Backoff != nil {
			delay = policy.Backoff(attempt)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, lastErr)
		}
	}
	return lastErr
}

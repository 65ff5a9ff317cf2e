// Package retry implements bounded retries with exponential backoff for
// calls to the fitness-device provider API. Callers classify each failure so
// auth errors abort immediately while rate limits wait out the longer window.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Action tells the retry loop what to do with a failed attempt.
type Action int

const (
	// Stop aborts immediately, the error will not heal on its own.
	Stop Action = iota
	// Retry backs off exponentially and tries again.
	Retry
	// After is for rate limits, it swaps in the longer backoff first.
	After
)

// Policy bounds a retry loop. The backoff doubles after every waited attempt.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	RateLimitBackoff time.Duration
	OnRetry          func(attempt int, err error, backoff time.Duration)
}

// Classify maps an attempt's error to the Action the loop should take.
type Classify func(err error) Action

// Operation is one attempt that produces a value.
type Operation[T any] func() (T, error)

// VoidOperation is one attempt with no result.
type VoidOperation func() error

// Do runs op until it succeeds, classify says Stop, the attempts run out, or
// ctx is cancelled while waiting. A Stop is reported as *PermanentError.
func (p Policy) Do(ctx context.Context, classify Classify, op func() error) error {
	delay := p.InitialBackoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		switch classify(err) {
		case Stop:
			return &PermanentError{Err: err}
		case After:
			delay = p.RateLimitBackoff
		}

		if attempt == p.MaxAttempts {
			return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}

	panic("unreachable: MaxAttempts must be >= 1")
}

// Do is the generic form of Policy.Do for operations that return a value.
func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	var val T
	err := p.Do(ctx, classify, func() error {
		var opErr error
		val, opErr = op()
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return val, nil
}

// DoVoid runs an operation without a result under the policy.
func DoVoid(ctx context.Context, p Policy, classify Classify, op VoidOperation) error {
	return p.Do(ctx, classify, func() error { return op() })
}

// PermanentError wraps an error that classification declared unretryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

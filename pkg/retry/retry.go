package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const defaultDelay = 20 * time.Millisecond

// Policy controls how Do re-runs an operation that failed transiently.
// The zero value retries nothing beyond the first attempt.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
}

func (p *Policy) normalize() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Delay <= 0 {
		p.Delay = defaultDelay
	}
	if p.Retryable == nil {
		p.Retryable = func(error) bool { return true }
	}
}

// backoff returns the jittered exponential wait before the next attempt.
func (p *Policy) backoff(attempt int) time.Duration {
	base := 1 << attempt * p.Delay
	jitter := time.Duration(rand.IntN(int(base/2)) + 1)
	return base + jitter
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. The last error is returned.
func Do(ctx context.Context, p Policy, fn func() error) error {
	_, err := DoWithResult(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var (
		zero, result T
		err          error
	)

	if err = ctx.Err(); err != nil {
		return zero, err
	}

	p.normalize()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err = fn()
		if err == nil || !p.Retryable(err) {
			return result, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		timer.Reset(p.backoff(attempt))
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}

	return zero, err
}

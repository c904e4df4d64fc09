// Package retry provides a small, reusable retry policy for calls to
// external adapters (blob store, record store).
package retry

import (
	"context"
	"time"
)

// Operation is a single attempt. The context carries the per-attempt deadline.
type Operation func(ctx context.Context) error

// Backoff returns the wait before retry number attempt (0-based).
type Backoff func(attempt int, base time.Duration) time.Duration

// Constant waits base between every attempt.
func Constant(_ int, base time.Duration) time.Duration { return base }

// Linear waits base*(attempt+1).
func Linear(attempt int, base time.Duration) time.Duration {
	return time.Duration(attempt+1) * base
}

// Exponential waits base*2^attempt.
func Exponential(attempt int, base time.Duration) time.Duration {
	return base << uint(attempt)
}

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts    int           // total attempts, values < 1 mean 1
	Delay          time.Duration // base delay handed to Backoff
	Backoff        Backoff       // defaults to Linear
	AttemptTimeout time.Duration // 0 means no per-attempt deadline
	Retryable      func(error) bool

	// Sleep is swapped out by tests; it must return ctx.Err() when ctx ends first.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op until it succeeds, the error is not retryable, the attempts are
// used up or ctx is done. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, op Operation) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Linear
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = p.attempt(ctx, op)
		if err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if sleepErr := sleep(ctx, backoff(attempt, p.Delay)); sleepErr != nil {
			return err
		}
	}
	return err
}

func (p Policy) attempt(ctx context.Context, op Operation) error {
	if p.AttemptTimeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return op(attemptCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

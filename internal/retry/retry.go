// Package retry provides bounded-attempt execution with exponential
// backoff and jitter for every network-facing operation in the sync core.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sawtfeel/livesync/internal/errors"
)

const jitterFraction = 0.1

// Options configures a retried execution.
type Options struct {
	MaxAttempts   int           // 1 means no retries
	BaseDelay     time.Duration // delay before the second attempt
	MaxDelay      time.Duration // cap on the computed delay
	BackoffFactor float64
	Jitter        bool // perturb delays by up to ±10%
	// RetryIf decides whether an error is worth another attempt.
	// Defaults to errors.IsRetryable.
	RetryIf func(err error) bool
	// OnRetry is invoked before each backoff wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultOptions returns the standard policy: 3 attempts, 1s base delay
// doubling up to 10s, with jitter.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
		Jitter:        true,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	if o.BackoffFactor <= 0 {
		o.BackoffFactor = 2
	}
	if o.RetryIf == nil {
		o.RetryIf = errors.IsRetryable
	}
	return o
}

// Backoff computes the pre-jitter delay before attempt+1, i.e.
// min(BaseDelay * BackoffFactor^(attempt-1), MaxDelay) for attempt >= 1.
func Backoff(o Options, attempt int) time.Duration {
	o = o.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(o.BaseDelay) * math.Pow(o.BackoffFactor, float64(attempt-1))
	if delay > float64(o.MaxDelay) {
		return o.MaxDelay
	}
	return time.Duration(delay)
}

func jitter(delay time.Duration) time.Duration {
	offset := float64(delay) * jitterFraction * (2*rand.Float64() - 1)
	perturbed := time.Duration(float64(delay) + offset)
	if perturbed < 0 {
		return 0
	}
	return perturbed
}

// Operation is a single retryable action.
type Operation[T any] func(ctx context.Context) (T, error)

// Do runs op up to MaxAttempts times. Errors rejected by RetryIf propagate
// immediately and unwrapped; exhausting all attempts yields an exhaustion
// error wrapping the last failure. Waits go through clock so they are
// cooperative and cancelable.
func Do[T any](ctx context.Context, clock clockwork.Clock, o Options, op Operation[T]) (T, error) {
	o = o.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if !o.RetryIf(err) {
			var zero T
			return zero, err
		}
		if attempt == o.MaxAttempts {
			break
		}

		delay := Backoff(o, attempt)
		if o.Jitter {
			delay = jitter(delay)
		}
		if o.OnRetry != nil {
			o.OnRetry(attempt, err, delay)
		}

		select {
		case <-clock.After(delay):
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}

	var zero T
	return zero, errors.Exhaustion(fmt.Sprintf("failed after %d attempts", o.MaxAttempts), lastErr)
}

// DoVoid is Do for operations without a result.
func DoVoid(ctx context.Context, clock clockwork.Clock, o Options, op func(ctx context.Context) error) error {
	_, err := Do(ctx, clock, o, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

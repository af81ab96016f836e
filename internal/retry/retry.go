// Package retry drives bounded re-invocation of reconcile attempts.
//
// Classification is left to the caller: Do only asks whether an error is
// worth another attempt. Delays follow an exponential schedule with jitter,
// capped by both an attempt count and a total elapsed time.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts         = 3
	DefaultInitialInterval     = 1 * time.Second
	DefaultMaxInterval         = 10 * time.Second
	DefaultMultiplier          = 2.0
	DefaultRandomizationFactor = 0.5
	DefaultMaxElapsedTime      = 1 * time.Minute
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts         int           // total attempts including the first
	InitialInterval     time.Duration // delay before the second attempt
	MaxInterval         time.Duration // cap on a single delay
	Multiplier          float64       // growth factor between delays
	RandomizationFactor float64       // jitter, 0 disables
	MaxElapsedTime      time.Duration // 0 means no elapsed bound
}

// DefaultPolicy allows two retries, starting at one second and doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         DefaultMaxAttempts,
		InitialInterval:     DefaultInitialInterval,
		MaxInterval:         DefaultMaxInterval,
		Multiplier:          DefaultMultiplier,
		RandomizationFactor: DefaultRandomizationFactor,
		MaxElapsedTime:      DefaultMaxElapsedTime,
	}
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.RandomizationFactor
	b.MaxElapsedTime = p.MaxElapsedTime
	if b.InitialInterval <= 0 {
		b.InitialInterval = DefaultInitialInterval
	}
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.Reset()
	return b
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// Operation is one attempt. attempt starts at 1.
type Operation func(ctx context.Context, attempt int) error

// Classifier reports whether err may succeed on a later attempt.
type Classifier func(err error) bool

// NotifyFunc is called after a failed attempt that will be retried, before
// sleeping for next.
type NotifyFunc func(attempt int, err error, next time.Duration)

// Do runs op until it succeeds, returns an error retryable rejects, or the
// policy is exhausted. The last error is returned unchanged in the latter two
// cases. If ctx ends while waiting, the last error is joined with ctx.Err().
func Do(ctx context.Context, p Policy, retryable Classifier, notify NotifyFunc, op Operation) error {
	b := p.backOff()
	limit := p.maxAttempts()

	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		if isContextErr(err) || (retryable != nil && !retryable(err)) {
			return err
		}
		if attempt >= limit {
			return err
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			return err
		}
		if notify != nil {
			notify(attempt, err, next)
		}

		t := time.NewTimer(next)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return errors.Join(ctx.Err(), err)
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Package retry holds the polling policy used while waiting on the chain.
// Only idempotent reads go through it; nothing that submits state is retried.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kcmikee/orbit/oracle/log"
)

// RetryConfig describes an exponential schedule bounded by total time.
type RetryConfig struct {
	BaseDelay  time.Duration // first delay
	MaxDelay   time.Duration // cap on a single delay
	Multiplier float64       // growth per attempt
	MaxElapsed time.Duration // give up after this long, 0 means never
}

// ReceiptRetryConfig is the receipt polling schedule: 1s growing to 5s.
func ReceiptRetryConfig(maxElapsed time.Duration) *RetryConfig {
	return &RetryConfig{
		BaseDelay:  1 * time.Second,
		MaxDelay:   5 * time.Second,
		Multiplier: 1.5,
		MaxElapsed: maxElapsed,
	}
}

// WithBaseDelay returns a copy of c starting at d, capped at max(d, MaxDelay).
func (c RetryConfig) WithBaseDelay(d time.Duration) *RetryConfig {
	c.BaseDelay = d
	if c.MaxDelay < d {
		c.MaxDelay = d
	}
	return &c
}

// NewBackOff builds the schedule. Jitter is disabled so the delays are the
// plain geometric sequence.
func (c *RetryConfig) NewBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	b.MaxInterval = c.MaxDelay
	b.Multiplier = c.Multiplier
	b.MaxElapsedTime = c.MaxElapsed
	b.RandomizationFactor = 0
	b.Reset()

	return backoff.WithContext(b, ctx)
}

// RetryableFunc is one attempt.
type RetryableFunc func() error

// IsRetryable reports whether another attempt should follow err.
type IsRetryable func(error) bool

// Do runs fn until it succeeds, isRetryable rejects its error, the schedule
// runs out or ctx ends. It returns the last error of fn, or ctx.Err() when
// the context ended first.
func Do(ctx context.Context, config *RetryConfig, fn RetryableFunc, isRetryable IsRetryable) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		log.Debugf("attempt %d: %v, next in %v", attempt, err, next)
	}

	return backoff.RetryNotify(op, config.NewBackOff(ctx), notify)
}

// Package resilience retries outbound calls (VIN decode, alarm webhooks) with
// jittered exponential backoff.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how many times and how slowly a call is retried.
type Policy struct {
	// Attempts is the total number of tries including the first. Default: 3.
	Attempts int

	// BaseDelay is the wait before the first retry. Default: 250ms.
	BaseDelay time.Duration

	// MaxDelay caps any single wait. Default: 5s.
	MaxDelay time.Duration

	// Jitter is the +/- fraction applied to each wait. Default: 0.2.
	Jitter float64

	// Retryable overrides IsTransient when set.
	Retryable func(err error) bool

	// Name labels retry log lines.
	Name string
}

// NewPolicy returns a Policy with the given attempt count and defaults for
// everything else.
func NewPolicy(name string, attempts int) Policy {
	return Policy{Name: name, Attempts: attempts}
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 250 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	} else if p.Jitter == 0 {
		p.Jitter = 0.2
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Do runs fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := range p.Attempts {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts-1 {
			break
		}

		zap.L().Warn("resilience: retrying",
			zap.String("operation", p.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (p Policy) backoff(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	delay = math.Min(delay, float64(p.MaxDelay))
	delay += (rand.Float64()*2 - 1) * delay * p.Jitter
	return time.Duration(math.Max(delay, 0))
}

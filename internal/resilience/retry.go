// Package resilience wraps outbound calls with bounded retries and per-host
// circuit breakers.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy describes how often and how patiently a call is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	// 1 disables retries.
	Attempts int

	Backoff    time.Duration
	MaxBackoff time.Duration

	// Jitter spreads each delay by +/- this fraction.
	Jitter float64

	// Retryable decides whether err deserves another attempt. Defaults to
	// IsTransient.
	Retryable func(err error) bool
}

// NewPolicy builds a Policy from plain config values, filling zero values
// with defaults.
func NewPolicy(attempts int, backoff, maxBackoff time.Duration) Policy {
	return Policy{Attempts: attempts, Backoff: backoff, MaxBackoff: maxBackoff, Jitter: 0.2}.normalize()
}

func (p Policy) normalize() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 500 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 10 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Delay returns the pause before retry number attempt (0-based):
// Backoff doubled per attempt, capped at MaxBackoff, then jittered.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalize()
	d := math.Min(float64(p.Backoff)*math.Pow(2, float64(attempt)), float64(p.MaxBackoff))
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(math.Max(d, 0))
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts, or ctx is done. op names the call in retry logs.
func Retry[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	p = p.normalize()

	var zero T
	var err error
	for attempt := range p.Attempts {
		var v T
		if v, err = fn(ctx); err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts-1 {
			break
		}

		zap.L().Debug("resilience: retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		t := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, err
		case <-t.C:
		}
	}
	return zero, err
}

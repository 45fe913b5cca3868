package retry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrInvalidPolicy is returned by Call when the policy cannot produce a schedule.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Policy bounds a single Call. It is a value and never mutated by Call.
type Policy struct {
	// MaxAttempts counts the first attempt; 1 disables retries.
	MaxAttempts int

	// InitialDelay is the wait after the first failed attempt.
	InitialDelay time.Duration

	// BackoffFactor multiplies the delay after every wait. Must be > 1.
	BackoffFactor float64

	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
}

// DefaultPolicy is tuned for interactive client calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      5 * time.Second,
	}
}

// Validate reports whether p is usable.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts %d", ErrInvalidPolicy, p.MaxAttempts)
	case p.InitialDelay < 0:
		return fmt.Errorf("%w: initial delay %s", ErrInvalidPolicy, p.InitialDelay)
	case math.IsNaN(p.BackoffFactor) || p.BackoffFactor <= 1:
		return fmt.Errorf("%w: backoff factor %v", ErrInvalidPolicy, p.BackoffFactor)
	case p.MaxDelay < 0:
		return fmt.Errorf("%w: max delay %s", ErrInvalidPolicy, p.MaxDelay)
	}
	return nil
}

// schedule returns the deterministic delay sequence: InitialDelay, then *BackoffFactor each
// step, capped at MaxDelay.
func (p Policy) schedule() backoff.BackOff {
	maxInterval := p.MaxDelay
	if maxInterval == 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          p.BackoffFactor,
		MaxInterval:         maxInterval,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// Delays returns the waits Call would perform if every attempt failed retryably.
func (p Policy) Delays() []time.Duration {
	if p.Validate() != nil || p.MaxAttempts < 2 {
		return nil
	}
	b := p.schedule()
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		out = append(out, b.NextBackOff())
	}
	return out
}

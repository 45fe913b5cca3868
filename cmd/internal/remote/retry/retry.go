package retry

import (
	"context"
	"time"

	"github.com/juju/clock"

	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/classify"
)

// Attempt is one try of the wrapped operation.
type Attempt[T any] func(ctx context.Context) (T, error)

// Retry describes a failed attempt that is about to be retried.
type Retry struct {
	Attempt int
	Err     *classify.Error
	Wait    time.Duration
}

type options struct {
	clock  clock.Clock
	notify func(Retry)
}

// Option configures a Call.
type Option func(*options)

// WithClock sets the clock used for waits.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithNotify registers a callback invoked before each wait.
func WithNotify(fn func(Retry)) Option {
	return func(o *options) { o.notify = fn }
}

// Call runs op until it succeeds, fails non-retryably, or p.MaxAttempts is reached.
//
// Failures are returned as *classify.Error. Cancellation of ctx, whether during an attempt
// or during a wait, yields a KindCancelled error and no further attempts; an in-flight
// attempt is abandoned rather than awaited.
func Call[T any](ctx context.Context, op Attempt[T], p Policy, c classify.Classifier, opts ...Option) (T, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, err
	}
	if c == nil {
		c = classify.Default()
	}
	o := options{clock: clock.WallClock}
	for _, opt := range opts {
		opt(&o)
	}

	delays := p.schedule()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, classify.Cancelled(err)
		}

		v, err := run(ctx, op)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, classify.Cancelled(ctxErr)
		}

		ce := c.Classify(err)
		if ce == nil {
			ce = classify.Classify(err)
		}
		if !ce.Retryable || attempt >= p.MaxAttempts {
			return zero, ce
		}

		wait := delays.NextBackOff()
		if o.notify != nil {
			o.notify(Retry{Attempt: attempt, Err: ce, Wait: wait})
		}
		if err := sleep(ctx, o.clock, wait); err != nil {
			return zero, classify.Cancelled(err)
		}
	}
}

type result[T any] struct {
	v   T
	err error
}

// run executes op and returns early if ctx is done first. The buffered channel lets an
// abandoned attempt finish without blocking.
func run[T any](ctx context.Context, op Attempt[T]) (T, error) {
	ch := make(chan result[T], 1)
	go func() {
		v, err := op(ctx)
		ch <- result[T]{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clk.NewTimer(d)
	select {
	case <-t.Chan():
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}

// Package retry runs an operation with a bounded number of exponentially
// delayed retries.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how often and how patiently an operation is retried.
// Attempt n (n >= 1) is preceded by a delay of InitialDelay * 2^(n-1),
// so the total number of calls is at most Retries+1.
type Policy struct {
	Retries      int
	InitialDelay time.Duration
}

// Notify is called before each delay with the error that caused the retry.
type Notify func(err error, attempt int, delay time.Duration)

type options struct {
	timer  backoff.Timer
	notify Notify
}

// Option customizes a single Do call.
type Option func(*options)

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithNotify registers a callback invoked before every retry.
func WithNotify(fn Notify) Option {
	return func(o *options) { o.notify = fn }
}

// Permanent marks err as not worth retrying. Do returns the wrapped error
// immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a Permanent error, the retries are
// spent or ctx is done.
// Parameters:
//   - ctx: cancels pending delays; it is also passed to op.
//   - p: retry count and first delay.
//   - op: the operation; its last error is returned on exhaustion.
// Returns:
//   - error: nil on success, otherwise the last error from op or ctx.Err().
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	attempt := 0
	var notify backoff.Notify
	if o.notify != nil {
		notify = func(err error, d time.Duration) {
			o.notify(err, attempt, d)
		}
	}

	operation := func() error {
		attempt++
		return op(ctx)
	}

	return backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), notify, o.timer)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	if p.Retries <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.Retries)), ctx)
}

// Package retry wraps remote calls with bounded exponential backoff on
// rate-limit failures. Any other failure is returned on the first attempt.
package retry

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1500 * time.Millisecond
)

// ErrRateLimited marks a failure as a rate-limit signal from a downstream service.
var ErrRateLimited = errors.New("rate limited")

// StatusCoder is implemented by errors that carry a remote status code.
type StatusCoder interface {
	StatusCode() int
}

// Policy configures the retry schedule. Delay before retry n (0-based) is
// InitialDelay * 2^n.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// DefaultPolicy returns three retries starting at 1.5s.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, InitialDelay: DefaultInitialDelay}
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	return p
}

// Delay returns the wait before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()
	return p.InitialDelay << uint(attempt)
}

// Attempts is the total number of calls made when every call fails transiently.
func (p Policy) Attempts() int {
	return p.normalized().MaxRetries + 1
}

// Operation is a retryable unit of work.
type Operation[T any] func(ctx context.Context) (T, error)

// Option customizes a single Do call.
type Option func(*options)

type options struct {
	onRetry func(attempt int, delay time.Duration, err error)
}

// OnRetry registers a hook invoked before each backoff wait.
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// Do runs op until it succeeds, fails fatally, or exhausts the policy. The
// error of the last attempt is returned unchanged.
func Do[T any](ctx context.Context, p Policy, op Operation[T], opts ...Option) (T, error) {
	p = p.normalized()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	schedule := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.Delay(p.MaxRetries),
	}

	retries := 0
	result, err := backoff.Retry(ctx, func() (T, error) {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if !IsTransient(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	},
		backoff.WithBackOff(schedule),
		backoff.WithMaxTries(uint(p.Attempts())),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if o.onRetry != nil {
				o.onRetry(retries, delay, err)
			}
			retries++
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return result, err
}

// IsTransient reports whether err is a rate-limit / resource-exhausted signal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return true
	}

	// A bare "429" in the text only counts when no status code is attached.
	var coder StatusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode() == http.StatusTooManyRequests
	}
	return strings.Contains(msg, "429")
}

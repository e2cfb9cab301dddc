package circuitbreaker

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	DefaultInitialBackoff = 250 * time.Millisecond
	DefaultMaxBackoff     = 4 * time.Second
)

// RetryPolicy defines how many times a failing request is retried and how
// long to wait between attempts. The wait doubles at every attempt up to
// MaxBackoff.
type RetryPolicy struct {
	MaxRetries     uint8
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewRetryPolicy returns a policy with default backoff settings.
func NewRetryPolicy(maxRetries uint8) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

// Backoff returns the time to wait before the given retry attempt, starting
// from 1.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		return p.MaxBackoff
	}
	return backoff
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks an error as not retriable. Permanent errors are returned
// unwrapped by Execute and do not count as circuit breaker failures.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// Execute runs the given function through the circuit breaker, retrying it
// with exponential backoff on failure. Retries stop as soon as the context is
// done, the breaker is open or the function returns a Permanent error.
func Execute(
	ctx context.Context, cb *gobreaker.CircuitBreaker, policy RetryPolicy,
	fn func() (interface{}, error),
) (interface{}, error) {
	var lastErr error
	for attempt := 0; attempt <= int(policy.MaxRetries); attempt++ {
		if attempt > 0 {
			backoff := policy.Backoff(attempt)
			log.WithError(lastErr).Debugf(
				"%s: retrying request in %s (attempt %d/%d)",
				cb.Name(), backoff, attempt, policy.MaxRetries,
			)

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		var permanentErr error
		res, err := cb.Execute(func() (interface{}, error) {
			res, err := fn()
			var perr permanentError
			if errors.As(err, &perr) {
				permanentErr = perr.err
				return nil, nil
			}
			return res, err
		})
		if permanentErr != nil {
			return nil, permanentErr
		}
		if err == nil {
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

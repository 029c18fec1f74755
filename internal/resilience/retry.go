package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RetryAllErrors disables transient-only filtering.
	RetryAllErrors bool
	// Delay overrides the wait after a failed attempt (1-based).
	// When nil, Backoff is used, stretched to a 429's Retry-After up to MaxDelay.
	Delay func(attempt int, err error) time.Duration
	// Sleep waits between attempts. Defaults to a timer that honors ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Retrier runs an upstream call with capped exponential backoff.
type Retrier struct {
	policy RetryPolicy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrier(policy RetryPolicy, logger *zap.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = policy.BaseDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Retrier{policy: policy, logger: logger, sleep: sleep}
}

// Backoff returns the delay after the given failed attempt (1-based).
func (r *Retrier) Backoff(attempt int) time.Duration {
	d := r.policy.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= r.policy.MaxDelay {
			return r.policy.MaxDelay
		}
	}
	return d
}

// Do invokes op until it succeeds or attempts run out. The last failure is
// returned as an *APIError attributed to source.
func (r *Retrier) Do(ctx context.Context, source string, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if attempt == r.policy.MaxAttempts || ctx.Err() != nil {
			break
		}
		if !r.policy.RetryAllErrors && !IsTransient(err) {
			break
		}

		delay := r.delay(attempt, err)
		r.logger.Warn("upstream call failed, retrying",
			zap.String("source", source),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if err := r.sleep(ctx, delay); err != nil {
			break
		}
	}
	return Normalize(last, source)
}

func (r *Retrier) delay(attempt int, err error) time.Duration {
	if r.policy.Delay != nil {
		return r.policy.Delay(attempt, err)
	}
	d := r.Backoff(attempt)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests && se.RetryAfter > d {
		d = min(se.RetryAfter, r.policy.MaxDelay)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package resilience

import (
	"context"
	"sync"
	"time"
)

type rateWindow struct {
	count int
	start time.Time
}

// RateLimiter enforces "max requests per window" for each key using a fixed-window counter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Wait blocks until key has capacity in its current window and then reserves a slot.
// It returns early only when ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, key string, maxRequests int, window time.Duration) error {
	if maxRequests <= 0 || window <= 0 {
		return ctx.Err()
	}
	for {
		delay, ok := r.reserve(key, maxRequests, window)
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a slot when available, otherwise returns the time left in the window.
func (r *RateLimiter) reserve(key string, maxRequests int, window time.Duration) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[key]
	if !ok || !now.Before(w.start.Add(window)) {
		w = &rateWindow{start: now}
		r.windows[key] = w
	}
	if w.count < maxRequests {
		w.count++
		return 0, true
	}
	return w.start.Add(window).Sub(now), false
}

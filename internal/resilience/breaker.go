package resilience

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const stateNotFound = "NOT_FOUND"

type BreakerSettings struct {
	FailureThreshold uint32
	ResetTimeout     time.Duration
}

// Breakers keeps one circuit breaker per service key.
type Breakers struct {
	mu       sync.Mutex
	settings BreakerSettings
	breakers map[string]*gobreaker.TwoStepCircuitBreaker
	logger   *zap.Logger
}

func NewBreakers(settings BreakerSettings, logger *zap.Logger) *Breakers {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.ResetTimeout <= 0 {
		settings.ResetTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breakers{
		settings: settings,
		breakers: make(map[string]*gobreaker.TwoStepCircuitBreaker),
		logger:   logger,
	}
}

func (b *Breakers) get(key string) *gobreaker.TwoStepCircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[key]; ok {
		return cb
	}
	threshold := b.settings.FailureThreshold
	cb := gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Timeout:     b.settings.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Warn("circuit breaker state changed",
				zap.String("service", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	b.breakers[key] = cb
	return cb
}

func (b *Breakers) lookup(key string) (*gobreaker.TwoStepCircuitBreaker, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[key]
	return cb, ok
}

// IsOpen reports whether calls to key must be skipped. Once the reset timeout
// has elapsed the breaker moves to half-open and IsOpen returns false.
func (b *Breakers) IsOpen(key string) bool {
	cb, ok := b.lookup(key)
	if !ok {
		return false
	}
	return cb.State() == gobreaker.StateOpen
}

func (b *Breakers) RecordFailure(key string) {
	b.record(key, false)
}

func (b *Breakers) RecordSuccess(key string) {
	b.record(key, true)
}

func (b *Breakers) record(key string, success bool) {
	done, err := b.get(key).Allow()
	if err != nil {
		// Open, or a half-open probe is already being accounted.
		return
	}
	done(success)
}

// Execute runs fn when the breaker for key allows it and records the outcome.
// A rejected call returns gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
// The orchestrator gates and records separately; Execute is kept for tests and one-off callers.
func (b *Breakers) Execute(key string, fn func() error) error {
	done, err := b.get(key).Allow()
	if err != nil {
		return err
	}
	err = fn()
	done(err == nil)
	return err
}

// State returns CLOSED, OPEN, HALF_OPEN, or NOT_FOUND for keys never used.
// It backs the circuit section of the health endpoint.
func (b *Breakers) State(key string) string {
	cb, ok := b.lookup(key)
	if !ok {
		return stateNotFound
	}
	switch cb.State() {
	case gobreaker.StateOpen:
		return "OPEN"
	case gobreaker.StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// Failures returns the current consecutive failure count for key.
func (b *Breakers) Failures(key string) uint32 {
	cb, ok := b.lookup(key)
	if !ok {
		return 0
	}
	return cb.Counts().ConsecutiveFailures
}

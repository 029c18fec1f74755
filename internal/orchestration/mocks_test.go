package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/resilience"
)

// mockSearcher is a configurable EventSearcher
type mockSearcher struct {
	name        string
	unavailable bool
	events      []models.Event
	err         error
	delay       time.Duration
	block       chan struct{} // when set, SearchEvents ignores ctx and waits on it

	calls   int32
	mu      sync.Mutex
	lastReq models.SearchRequest
}

func (m *mockSearcher) Name() string    { return m.name }
func (m *mockSearcher) Available() bool { return !m.unavailable }

func (m *mockSearcher) SearchEvents(ctx context.Context, req models.SearchRequest) ([]models.Event, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	m.lastReq = req
	m.mu.Unlock()

	if m.block != nil {
		<-m.block
		return []models.Event{}, nil
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return []models.Event{}, resilience.Normalize(ctx.Err(), m.name)
		}
	}
	if m.err != nil {
		return []models.Event{}, m.err
	}
	return m.events, nil
}

func (m *mockSearcher) Calls() int { return int(atomic.LoadInt32(&m.calls)) }

func (m *mockSearcher) LastRequest() models.SearchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

// mockGenerator is a configurable SuggestionGenerator
type mockGenerator struct {
	name        string
	unavailable bool
	resp        models.AIResponse
	err         error
	delay       time.Duration

	calls int32
}

func (m *mockGenerator) Name() string    { return m.name }
func (m *mockGenerator) Available() bool { return !m.unavailable }

func (m *mockGenerator) GenerateSuggestion(ctx context.Context, params models.SuggestionParams) (models.AIResponse, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return models.AIResponse{}, resilience.Normalize(ctx.Err(), m.name)
		}
	}
	return m.resp, m.err
}

func (m *mockGenerator) Calls() int { return int(atomic.LoadInt32(&m.calls)) }

func event(name, start, source string) models.Event {
	return models.Event{ID: name + "-" + source, Name: name, Start: start, Source: source}
}

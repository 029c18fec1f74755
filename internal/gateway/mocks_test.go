package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/bizmatters/dateai/orchestrator/internal/geocode"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/orchestration"
)

// MockOrchestrator implements Orchestrator for testing
type MockOrchestrator struct {
	mu          sync.Mutex
	events      []models.Event
	plan        models.DatePlan
	results     []orchestration.ProviderResult
	status      map[string]bool
	circuits    map[string]models.CircuitStatus
	delay       time.Duration
	panicWith   any
	lastSearch  models.SearchRequest
	lastPlan    models.DatePlanRequest
	searchCalls int
}

func (m *MockOrchestrator) wait() {
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
}

func (m *MockOrchestrator) SearchEvents(ctx context.Context, req models.SearchRequest) []models.Event {
	m.mu.Lock()
	m.lastSearch = req
	m.searchCalls++
	m.mu.Unlock()
	m.wait()
	return m.events
}

func (m *MockOrchestrator) SearchEventsStream(ctx context.Context, req models.SearchRequest, observe orchestration.Observer) []models.Event {
	m.mu.Lock()
	m.lastSearch = req
	m.searchCalls++
	m.mu.Unlock()
	for _, r := range m.results {
		observe(r)
	}
	return m.events
}

func (m *MockOrchestrator) GenerateDatePlan(ctx context.Context, req models.DatePlanRequest) models.DatePlan {
	m.mu.Lock()
	m.lastPlan = req
	m.mu.Unlock()
	m.wait()
	return m.plan
}

func (m *MockOrchestrator) ServiceStatus() map[string]bool {
	return m.status
}

func (m *MockOrchestrator) CircuitStatus() map[string]models.CircuitStatus {
	return m.circuits
}

func (m *MockOrchestrator) LastSearch() models.SearchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSearch
}

func (m *MockOrchestrator) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}

// MockGeocoder implements Geocoder for testing
type MockGeocoder struct {
	places     []geocode.Place
	searchErr  error
	place      *geocode.Place
	reverseErr error
	lastQuery  string
}

func (m *MockGeocoder) Search(ctx context.Context, q string) ([]geocode.Place, error) {
	m.lastQuery = q
	return m.places, m.searchErr
}

func (m *MockGeocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Place, error) {
	return m.place, m.reverseErr
}

package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bizmatters/dateai/orchestrator/internal/logging"
	"github.com/bizmatters/dateai/orchestrator/internal/metrics"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/providers"
	"github.com/bizmatters/dateai/orchestrator/internal/resilience"
)

const (
	suggestionsFallback = "Failed to generate suggestions"
	insightsFallback    = "Failed to get insights"
	circuitOpenReason   = "circuit breaker is open"
)

// credentialKeys maps provider names to the keys reported by ServiceStatus.
var credentialKeys = map[string]string{
	"eventbrite":   "eventbrite_api_key",
	"ticketmaster": "ticketmaster_api_key",
	"realtime":     "rapidapi_key",
	"anthropic":    "anthropic_api_key",
	"perplexity":   "perplexity_api_key",
}

// CircuitBreaker is the per-service gate consulted before every provider call.
type CircuitBreaker interface {
	IsOpen(key string) bool
	RecordFailure(key string)
	RecordSuccess(key string)
	State(key string) string
	Failures(key string) uint32
}

// ProviderResult is the settled outcome of one event provider during a search.
type ProviderResult struct {
	Provider string         `json:"provider"`
	Events   []models.Event `json:"events"`
	Error    string         `json:"error,omitempty"`
	Skipped  bool           `json:"skipped,omitempty"`
}

// Observer receives provider results as they settle. Calls are serialized.
type Observer func(ProviderResult)

type Options struct {
	ProviderTimeout time.Duration
	CacheTTL        time.Duration
	Metrics         *metrics.ProviderMetrics
	Logger          *zap.Logger
}

// Service fans requests out to the providers and merges their results
type Service struct {
	events   []providers.EventSearcher
	ai       providers.AIProviders
	cache    *resilience.Cache
	breakers CircuitBreaker
	timeout  time.Duration
	ttl      time.Duration
	group    singleflight.Group
	metrics  *metrics.ProviderMetrics
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewService creates a new orchestration service
func NewService(events []providers.EventSearcher, ai providers.AIProviders, cache *resilience.Cache, breakers CircuitBreaker, opts Options) *Service {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 15 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Service{
		events:   events,
		ai:       ai,
		cache:    cache,
		breakers: breakers,
		timeout:  opts.ProviderTimeout,
		ttl:      opts.CacheTTL,
		metrics:  opts.Metrics,
		logger:   logging.OrNop(opts.Logger),
		tracer:   otel.Tracer("orchestrator"),
	}
}

func compositeKey(namespace string, req any) string {
	payload, err := json.Marshal(req)
	if err != nil {
		// Both request types always marshal; fall back to the Go representation.
		return fmt.Sprintf("%s:%+v", namespace, req)
	}
	return namespace + ":" + string(payload)
}

// SearchEvents queries every event provider whose circuit is closed and returns
// the deduplicated events sorted by start. It never fails; providers that error
// or time out contribute nothing. Identical concurrent searches share one fan-out.
func (s *Service) SearchEvents(ctx context.Context, req models.SearchRequest) []models.Event {
	key := compositeKey("events", req)
	if cached, ok := resilience.Lookup[[]models.Event](s.cache, key); ok {
		return cached
	}

	v, _, shared := s.group.Do(key, func() (any, error) {
		// Shared work outlives any single caller; the per-provider timeout bounds it.
		return s.searchUncached(context.WithoutCancel(ctx), key, req, nil), nil
	})
	if shared {
		s.logger.Debug("search coalesced with an in-flight request")
	}
	return v.([]models.Event)
}

// SearchEventsStream behaves like SearchEvents and reports each provider's
// outcome to observe as it settles. A cache hit reports no provider results.
func (s *Service) SearchEventsStream(ctx context.Context, req models.SearchRequest, observe Observer) []models.Event {
	key := compositeKey("events", req)
	if cached, ok := resilience.Lookup[[]models.Event](s.cache, key); ok {
		return cached
	}
	return s.searchUncached(ctx, key, req, observe)
}

func (s *Service) searchUncached(ctx context.Context, key string, req models.SearchRequest, observe Observer) []models.Event {
	ctx, span := s.tracer.Start(ctx, "orchestrator.search_events")
	defer span.End()

	var mu sync.Mutex
	report := func(r ProviderResult) {
		if observe == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		observe(r)
	}

	results := make([][]models.Event, len(s.events))
	var wg sync.WaitGroup
	for i, adapter := range s.events {
		name := adapter.Name()
		if s.breakers.IsOpen(name) {
			s.logger.Info("circuit open, skipping provider", zap.String("provider", name))
			s.metrics.RecordCall(ctx, name, providers.OpSearchEvents, metrics.OutcomeCircuitOpen, 0)
			report(ProviderResult{Provider: name, Events: []models.Event{}, Error: circuitOpenReason, Skipped: true})
			continue
		}

		wg.Add(1)
		go func(i int, adapter providers.EventSearcher) {
			defer wg.Done()
			events, err := withTimeout(ctx, s.timeout, adapter.Name(), func(ctx context.Context) ([]models.Event, error) {
				return adapter.SearchEvents(ctx, req)
			})
			s.settle(ctx, adapter.Name(), adapter.Available(), err)
			if err != nil || events == nil {
				events = []models.Event{}
			}
			results[i] = events

			r := ProviderResult{Provider: adapter.Name(), Events: events}
			if err != nil {
				r.Error = errorReason(err)
			}
			report(r)
		}(i, adapter)
	}
	wg.Wait()

	merged := mergeEvents(results)
	span.SetAttributes(attribute.Int("events.count", len(merged)))

	// A caller that went away cut the fan-out short; the composite is partial.
	if err := ctx.Err(); err != nil {
		s.logger.Debug("search abandoned, result not cached", zap.Error(err))
		return merged
	}
	s.cache.Set(key, merged, s.ttl)
	return merged
}

// GenerateDatePlan gathers AI suggestions, matching events and AI insights
// concurrently. Failed parts fall back to in-band error responses.
func (s *Service) GenerateDatePlan(ctx context.Context, req models.DatePlanRequest) models.DatePlan {
	key := compositeKey("datePlan", req)
	if cached, ok := resilience.Lookup[models.DatePlan](s.cache, key); ok {
		return cached
	}

	v, _, _ := s.group.Do(key, func() (any, error) {
		return s.planUncached(context.WithoutCancel(ctx), key, req), nil
	})
	return v.(models.DatePlan)
}

func (s *Service) planUncached(ctx context.Context, key string, req models.DatePlanRequest) models.DatePlan {
	ctx, span := s.tracer.Start(ctx, "orchestrator.generate_date_plan")
	defer span.End()

	params := models.SuggestionParams{IdeaText: req.Preferences, Location: req.Location}
	var plan models.DatePlan

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		plan.Suggestions = s.suggest(ctx, s.ai.Suggestions, params, suggestionsFallback)
	}()
	go func() {
		defer wg.Done()
		plan.Events = s.SearchEvents(ctx, models.SearchRequest{
			Query:      req.Preferences,
			Location:   models.TextLocation(req.Location),
			Date:       req.Date,
			Categories: []string{},
		})
	}()
	go func() {
		defer wg.Done()
		plan.Insights = s.suggest(ctx, s.ai.Insights, params, insightsFallback)
	}()
	wg.Wait()

	s.cache.Set(key, plan, s.ttl)
	return plan
}

func (s *Service) suggest(ctx context.Context, gen providers.SuggestionGenerator, params models.SuggestionParams, fallback string) models.AIResponse {
	if gen == nil {
		return models.AIResponse{Message: fallback, Error: "provider not configured"}
	}
	name := gen.Name()
	if s.breakers.IsOpen(name) {
		s.metrics.RecordCall(ctx, name, providers.OpGenerateSuggestion, metrics.OutcomeCircuitOpen, 0)
		return models.AIResponse{Message: fallback, Error: circuitOpenReason}
	}

	resp, err := withTimeout(ctx, s.timeout, name, func(ctx context.Context) (models.AIResponse, error) {
		return gen.GenerateSuggestion(ctx, params)
	})
	s.settle(ctx, name, gen.Available(), err)
	if err != nil {
		if resp.Message == "" {
			return models.AIResponse{Message: fallback, Error: errorReason(err)}
		}
		if !resp.Failed() {
			resp.Error = errorReason(err)
		}
	}
	return resp
}

// settle records the outcome of a provider call on its circuit.
// Providers without credentials and calls abandoned by the caller are not accounted.
func (s *Service) settle(ctx context.Context, name string, available bool, err error) {
	if !available || errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	if err != nil {
		s.logger.Warn("provider call failed", zap.String("provider", name), zap.Error(err))
		s.breakers.RecordFailure(name)
		return
	}
	s.breakers.RecordSuccess(name)
}

// withTimeout runs fn under a per-provider deadline. A provider that ignores
// cancellation is abandoned once the deadline passes.
func withTimeout[T any](ctx context.Context, timeout time.Duration, source string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: resilience.NewAPIError(source, models.ErrCodeUnknown, http.StatusInternalServerError, fmt.Sprintf("provider panicked: %v", r))}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out.value, timeoutError(source)
		}
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, timeoutError(source)
	}
}

func timeoutError(source string) error {
	return resilience.NewAPIError(source, models.ErrCodeTimeout, http.StatusGatewayTimeout, "Service timeout")
}

func errorReason(err error) string {
	if apiErr := resilience.Normalize(err, ""); apiErr != nil {
		return apiErr.Message
	}
	return ""
}

// ServiceStatus reports which upstream credentials are configured.
func (s *Service) ServiceStatus() map[string]bool {
	status := make(map[string]bool, len(credentialKeys))
	for _, key := range credentialKeys {
		status[key] = false
	}
	mark := func(name string, available bool) {
		if key, ok := credentialKeys[name]; ok {
			status[key] = available
		}
	}
	for _, a := range s.events {
		mark(a.Name(), a.Available())
	}
	if s.ai.Suggestions != nil {
		mark(s.ai.Suggestions.Name(), s.ai.Suggestions.Available())
	}
	if s.ai.Insights != nil {
		mark(s.ai.Insights.Name(), s.ai.Insights.Available())
	}
	return status
}

// CircuitStatus reports the breaker state of every configured provider.
// Providers never called report NOT_FOUND.
func (s *Service) CircuitStatus() map[string]models.CircuitStatus {
	status := make(map[string]models.CircuitStatus, len(s.events)+2)
	add := func(name string) {
		status[name] = models.CircuitStatus{
			State:    s.breakers.State(name),
			Failures: s.breakers.Failures(name),
		}
	}
	for _, a := range s.events {
		add(a.Name())
	}
	for _, g := range []providers.SuggestionGenerator{s.ai.Suggestions, s.ai.Insights} {
		if g != nil {
			add(g.Name())
		}
	}
	return status
}

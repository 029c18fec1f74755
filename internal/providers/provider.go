package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/logging"
	"github.com/bizmatters/dateai/orchestrator/internal/metrics"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/resilience"
)

// Operation names used in cache keys, spans and metrics.
const (
	OpSearchEvents       = "searchEvents"
	OpGenerateSuggestion = "generateSuggestion"
)

// EventSearcher is implemented by every event search upstream.
// The returned slice is always usable; the error is nil or a *resilience.APIError.
type EventSearcher interface {
	Name() string
	Available() bool
	SearchEvents(ctx context.Context, req models.SearchRequest) ([]models.Event, error)
}

// SuggestionGenerator is implemented by every AI upstream.
// The returned response is always usable; the error is nil or a *resilience.APIError.
type SuggestionGenerator interface {
	Name() string
	Available() bool
	GenerateSuggestion(ctx context.Context, params models.SuggestionParams) (models.AIResponse, error)
}

// Deps are the shared components every adapter is composed from.
// Nil fields get a private default.
type Deps struct {
	Cache      *resilience.Cache
	Limiter    *resilience.RateLimiter
	Retrier    *resilience.Retrier
	Metrics    *metrics.ProviderMetrics
	Logger     *zap.Logger
	HTTPClient *http.Client
}

func (d Deps) withDefaults() Deps {
	d.Logger = logging.OrNop(d.Logger)
	if d.Cache == nil {
		d.Cache = resilience.NewCache()
	}
	if d.Limiter == nil {
		d.Limiter = resilience.NewRateLimiter()
	}
	if d.Retrier == nil {
		d.Retrier = resilience.NewRetrier(resilience.RetryPolicy{MaxAttempts: 3}, d.Logger)
	}
	return d
}

// base carries the call sequence shared by all adapters.
type base struct {
	name      string
	cfg       config.Provider
	available bool
	deps      Deps
	client    *http.Client
	logger    *zap.Logger
	tracer    trace.Tracer
}

func newBase(name string, cfg config.Provider, deps Deps) base {
	deps = deps.withDefaults()
	logger := deps.Logger.With(zap.String("provider", name))

	available := cfg.APIKey != ""
	if !available {
		logger.Warn("API key not set, provider will be unavailable")
	}

	client := deps.HTTPClient
	if client == nil {
		client = newHTTPClient(cfg.Timeout)
	}

	return base{
		name:      name,
		cfg:       cfg,
		available: available,
		deps:      deps,
		client:    client,
		logger:    logger,
		tracer:    otel.Tracer("provider-" + name),
	}
}

func (b *base) Name() string { return b.name }

func (b *base) Available() bool { return b.available }

// skip records a call that was not made because the provider has no credentials.
func (b *base) skip(ctx context.Context, op string) {
	b.logger.Debug("provider unavailable, skipping call", zap.String("operation", op))
	b.deps.Metrics.RecordCall(ctx, b.name, op, metrics.OutcomeUnavailable, 0)
}

func cacheKey(provider, op string, request any) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key: %w", err)
	}
	return provider + ":" + op + ":" + string(payload), nil
}

// call runs cache lookup, rate limiting and the retried upstream fetch, then
// caches the transformed result. fetch performs one attempt.
func call[T any](ctx context.Context, b *base, op string, request any, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, span := b.tracer.Start(ctx, "provider."+op)
	defer span.End()
	span.SetAttributes(attribute.String("provider", b.name))

	finish := b.deps.Metrics.CallStarted(ctx, b.name, op)

	key, err := cacheKey(b.name, op, request)
	if err != nil {
		apiErr := resilience.Normalize(err, b.name)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Message)
		finish(metrics.OutcomeFailure)
		return zero, apiErr
	}

	if cached, ok := resilience.Lookup[T](b.deps.Cache, key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		finish(metrics.OutcomeCacheHit)
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	if err := b.deps.Limiter.Wait(ctx, b.name, b.cfg.RateLimit.MaxRequests, b.cfg.RateLimit.Window); err != nil {
		apiErr := resilience.Normalize(err, b.name)
		span.RecordError(apiErr)
		finish(metrics.OutcomeTimeout)
		return zero, apiErr
	}

	var result T
	err = b.deps.Retrier.Do(ctx, b.name, func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Error("upstream call failed", zap.String("operation", op), zap.Error(err))
		finish(metrics.OutcomeFailure)
		return zero, err
	}

	b.deps.Cache.Set(key, result, b.cfg.CacheTTL)
	finish(metrics.OutcomeSuccess)
	return result, nil
}

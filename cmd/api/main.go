package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	_ "github.com/bizmatters/dateai/orchestrator/docs" // swagger docs
	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/gateway"
	"github.com/bizmatters/dateai/orchestrator/internal/geocode"
	"github.com/bizmatters/dateai/orchestrator/internal/logging"
	"github.com/bizmatters/dateai/orchestrator/internal/metrics"
	"github.com/bizmatters/dateai/orchestrator/internal/orchestration"
	"github.com/bizmatters/dateai/orchestrator/internal/providers"
	"github.com/bizmatters/dateai/orchestrator/internal/resilience"
)

// @title DateAI Orchestrator API
// @version 2.0
// @description Finds events and plans dates by fanning requests out to event and AI providers.
// @description Providers are rate limited, retried and guarded by circuit breakers; partial failures
// @description yield fewer results rather than errors.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Initialize OpenTelemetry
	tp, err := initTracer()
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	providerMetrics, err := metrics.NewProviderMetrics()
	if err != nil {
		logger.Fatal("Failed to initialize provider metrics", zap.Error(err))
	}

	// Shared resilience state
	cache := resilience.NewCache()
	breakers := resilience.NewBreakers(resilience.BreakerSettings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
	}, logger)
	retrier := resilience.NewRetrier(resilience.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		BaseDelay:      cfg.Retry.BaseDelay,
		MaxDelay:       cfg.Retry.MaxDelay,
		RetryAllErrors: cfg.Retry.RetryAllErrors,
	}, logger)

	deps := providers.Deps{
		Cache:   cache,
		Limiter: resilience.NewRateLimiter(),
		Retrier: retrier,
		Metrics: providerMetrics,
		Logger:  logger,
	}
	eventSearchers, err := providers.NewEventSearchers(cfg, deps)
	if err != nil {
		logger.Fatal("Failed to build event providers", zap.Error(err))
	}
	aiProviders := providers.NewAIProviders(cfg, deps)

	for _, s := range eventSearchers {
		if !s.Available() {
			logger.Warn("provider credential not set; provider disabled", zap.String("provider", s.Name()))
		}
	}
	for _, g := range []providers.SuggestionGenerator{aiProviders.Suggestions, aiProviders.Insights} {
		if !g.Available() {
			logger.Warn("provider credential not set; provider disabled", zap.String("provider", g.Name()))
		}
	}

	// Initialize orchestration layer
	service := orchestration.NewService(eventSearchers, aiProviders, cache, breakers, orchestration.Options{
		ProviderTimeout: cfg.Orchestrator.ProviderTimeout,
		CacheTTL:        cfg.Orchestrator.CacheTTL,
		Metrics:         providerMetrics,
		Logger:          logger,
	})

	// Initialize gateway layer
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)

	geocoder := geocode.NewClient(cfg.Geocode, logger)
	handler := gateway.NewHandler(service, geocoder, cfg, httpMetrics, logger)
	stream := gateway.NewEventStream(service, cfg, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gateway.RequestID(),
		gateway.RequestLogger(logger),
		gateway.Recovery(logger, cfg.IsProduction()),
		gateway.CORS(cfg.Server.AllowedOrigins),
		httpMetrics.Middleware(),
	)

	// Health checks MUST be at the root for the WebService standard
	router.GET("/health", handler.Health)
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(httpMetrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	handler.RegisterRoutes(api)
	api.GET("/ws/events/search", stream.SearchEvents)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting DateAI orchestrator",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Env),
			zap.Strings("event_providers", cfg.Orchestrator.EventProviders),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initTracer initializes OpenTelemetry tracing
func initTracer() (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}

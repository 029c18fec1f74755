package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/geocode"
	"github.com/bizmatters/dateai/orchestrator/internal/logging"
	"github.com/bizmatters/dateai/orchestrator/internal/metrics"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/orchestration"
)

var errDeadlineExceeded = errors.New("operation timed out")

// Orchestrator is the subset of orchestration.Service used by the gateway
type Orchestrator interface {
	SearchEvents(ctx context.Context, req models.SearchRequest) []models.Event
	SearchEventsStream(ctx context.Context, req models.SearchRequest, observe orchestration.Observer) []models.Event
	GenerateDatePlan(ctx context.Context, req models.DatePlanRequest) models.DatePlan
	ServiceStatus() map[string]bool
	CircuitStatus() map[string]models.CircuitStatus
}

// Geocoder resolves places for the location picker
type Geocoder interface {
	Search(ctx context.Context, q string) ([]geocode.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Place, error)
}

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	orchestrator Orchestrator
	geocoder     Geocoder
	deadline     time.Duration
	env          string
	production   bool
	metrics      *metrics.HTTPMetrics
	logger       *zap.Logger
	tracer       trace.Tracer
}

// NewHandler creates a new gateway handler
func NewHandler(orch Orchestrator, geo Geocoder, cfg *config.Config, httpMetrics *metrics.HTTPMetrics, logger *zap.Logger) *Handler {
	return &Handler{
		orchestrator: orch,
		geocoder:     geo,
		deadline:     cfg.Server.RequestDeadline,
		env:          cfg.Env,
		production:   cfg.IsProduction(),
		metrics:      httpMetrics,
		logger:       logging.OrNop(logger),
		tracer:       otel.Tracer("gateway"),
	}
}

// RegisterRoutes mounts the API on api (normally the /api group).
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/health", h.Health)
	api.GET("/events/search", h.SearchEvents)
	api.POST("/events/search", h.SearchEvents)
	api.POST("/date/plan", h.GenerateDatePlan)
	api.GET("/geocode/search", h.GeocodeSearch)
	api.GET("/geocode/reverse", h.GeocodeReverse)
}

// Health godoc
// @Summary Service health
// @Description Reports which upstream credentials are configured and each provider's circuit state
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "healthy",
		Services: h.orchestrator.ServiceStatus(),
		Circuits: h.orchestrator.CircuitStatus(),
		Env:      h.env,
	})
}

// SearchEvents godoc
// @Summary Search events
// @Description Searches every event provider and returns the merged, deduplicated events sorted by start.
// @Description GET takes query, location or lat/lon/radius, date and categories as query parameters.
// @Tags events
// @Accept json
// @Produce json
// @Param request body models.SearchRequest false "Search request (POST)"
// @Param query query string false "Search text (GET)"
// @Param location query string false "Free text location (GET)"
// @Param lat query number false "Latitude (GET)"
// @Param lon query number false "Longitude (GET)"
// @Param radius query number false "Radius in miles (GET)"
// @Param date query string false "Date (GET)"
// @Param categories query []string false "Categories (GET)"
// @Success 200 {array} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Failure 408 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /events/search [get]
// @Router /events/search [post]
func (h *Handler) SearchEvents(c *gin.Context) {
	req, err := h.bindSearchRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" || req.Location.IsZero() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing required parameters",
			Details: "Location and query are required",
		})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.search_events")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.query", req.Query),
		attribute.String("search.location", req.Location.String()),
	)

	events, err := runWithDeadline(ctx, h.deadline, func(ctx context.Context) []models.Event {
		return h.orchestrator.SearchEvents(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		h.fail(c, err, "Failed to search events")
		return
	}
	c.JSON(http.StatusOK, events)
}

// bindSearchRequest reads the request from the JSON body (POST) or query string (GET).
func (h *Handler) bindSearchRequest(c *gin.Context) (models.SearchRequest, error) {
	var req models.SearchRequest
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	req.Query = c.Query("query")
	req.Date = c.Query("date")
	req.Categories = splitCategories(c.QueryArray("categories"))

	if lat, lon, ok := parseCoordinates(c.Query("lat"), c.Query("lon")); ok {
		req.Location = models.PointLocation(lat, lon)
		if radius, err := strconv.ParseFloat(c.Query("radius"), 64); err == nil {
			req.Location.Coords.Radius = &radius
		}
	} else {
		req.Location = models.TextLocation(strings.TrimSpace(c.Query("location")))
	}
	return req, nil
}

// splitCategories accepts repeated parameters and comma separated lists.
func splitCategories(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseCoordinates(latParam, lonParam string) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latParam), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonParam), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// GenerateDatePlan godoc
// @Summary Generate a date plan
// @Description Combines AI suggestions, matching events and AI insights for a location and preferences
// @Tags date
// @Accept json
// @Produce json
// @Param request body models.DatePlanRequest true "Date plan request"
// @Success 200 {object} models.DatePlan
// @Failure 400 {object} models.ErrorResponse
// @Failure 408 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /date/plan [post]
func (h *Handler) GenerateDatePlan(c *gin.Context) {
	var req models.DatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}
	if strings.TrimSpace(req.Location) == "" || strings.TrimSpace(req.Preferences) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing required parameters",
			Details: "Location and preferences are required",
		})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.generate_date_plan")
	defer span.End()
	span.SetAttributes(attribute.String("plan.location", req.Location))

	plan, err := runWithDeadline(ctx, h.deadline, func(ctx context.Context) models.DatePlan {
		return h.orchestrator.GenerateDatePlan(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		h.fail(c, err, "Failed to generate date plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GeocodeSearch godoc
// @Summary Search locations
// @Description Forward geocoding. Queries shorter than two characters return an empty list.
// @Tags geocode
// @Produce json
// @Param q query string true "Place name"
// @Success 200 {array} geocode.Place
// @Failure 400 {object} models.ErrorResponse
// @Router /geocode/search [get]
func (h *Handler) GeocodeSearch(c *gin.Context) {
	q, ok := c.GetQuery("q")
	if !ok || q == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Query parameter is required"})
		return
	}

	places, err := h.geocoder.Search(c.Request.Context(), q)
	if err != nil {
		// The location picker treats a failed lookup as no match.
		h.logger.Warn("geocode search failed", zap.String("query", q), zap.Error(err))
		places = []geocode.Place{}
	}
	c.JSON(http.StatusOK, places)
}

// GeocodeReverse godoc
// @Summary Reverse geocode
// @Description Resolves coordinates to a place
// @Tags geocode
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} geocode.Place
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /geocode/reverse [get]
func (h *Handler) GeocodeReverse(c *gin.Context) {
	latParam, lonParam := c.Query("lat"), c.Query("lon")
	if latParam == "" || lonParam == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Latitude and longitude are required"})
		return
	}
	lat, lon, ok := parseCoordinates(latParam, lonParam)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid latitude or longitude values"})
		return
	}

	place, err := h.geocoder.Reverse(c.Request.Context(), lat, lon)
	if err != nil {
		if !errors.Is(err, geocode.ErrNotFound) {
			h.logger.Warn("reverse geocode failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		}
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Location not found"})
		return
	}
	c.JSON(http.StatusOK, place)
}

// fail writes 408 for the request deadline and a generic 500 otherwise.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, errDeadlineExceeded):
		h.metrics.DeadlineExceeded()
		h.logger.Warn("request deadline exceeded", zap.String("path", c.Request.URL.Path), zap.Duration("deadline", h.deadline))
		c.JSON(http.StatusRequestTimeout, models.ErrorResponse{Error: "Request timeout"})
	case errors.Is(err, context.Canceled):
		h.logger.Debug("client went away", zap.String("path", c.Request.URL.Path))
		c.Abort()
	default:
		h.logger.Error(message, zap.Error(err))
		resp := models.ErrorResponse{Error: message}
		if !h.production {
			resp.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// runWithDeadline runs fn in its own goroutine and gives up once d elapses.
// Work that outlives the deadline keeps running; only the caller is released.
func runWithDeadline[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		done <- outcome{value: fn(ctx)}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, errDeadlineExceeded
		}
		return zero, ctx.Err()
	}
}

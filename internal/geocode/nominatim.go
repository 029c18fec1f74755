// Package geocode resolves free-text places and coordinates through a Nominatim server.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/logging"
	"github.com/bizmatters/dateai/orchestrator/internal/resilience"
)

const (
	searchLimit     = 5
	reverseZoom     = 18
	minQueryLength  = 2
	maxResponseBody = 1 << 20
)

// ErrNotFound is returned by Reverse when no place matches the coordinates.
var ErrNotFound = errors.New("location not found")

// Place is a Nominatim search or reverse result.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	Licence     string            `json:"licence"`
	OSMType     string            `json:"osm_type"`
	OSMID       int64             `json:"osm_id"`
	BoundingBox []string          `json:"boundingbox"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Class       string            `json:"class"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Address     map[string]string `json:"address,omitempty"`
}

// Client talks to Nominatim. Failed requests are retried on network errors and 5xx
// with a linearly growing delay; a 429 waits for Retry-After before the next attempt.
type Client struct {
	baseURL    string
	userAgent  string
	retryDelay time.Duration
	retrier    *resilience.Retrier
	http       *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewClient creates a Nominatim client from cfg.
func NewClient(cfg config.Geocode, logger *zap.Logger) *Client {
	return newClient(cfg, logger, nil)
}

func newClient(cfg config.Geocode, logger *zap.Logger, sleep func(context.Context, time.Duration) error) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = logging.OrNop(logger).With(zap.String("component", "geocode"))
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		retryDelay: time.Second,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
		tracer:     otel.Tracer("geocode"),
	}
	c.retrier = resilience.NewRetrier(resilience.RetryPolicy{
		MaxAttempts: cfg.MaxRetries + 1,
		BaseDelay:   c.retryDelay,
		Delay:       c.backoff,
		Sleep:       sleep,
	}, logger)
	return c
}

// Search returns up to five places matching q. Queries shorter than two
// characters return an empty result without calling the server.
func (c *Client) Search(ctx context.Context, q string) ([]Place, error) {
	q = strings.TrimSpace(q)
	if len(q) < minQueryLength {
		return []Place{}, nil
	}

	ctx, span := c.tracer.Start(ctx, "geocode.search")
	defer span.End()

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(searchLimit))

	var places []Place
	if err := c.get(ctx, "/search", params, &places); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("location search failed", zap.String("query", q), zap.Error(err))
		return nil, fmt.Errorf("search locations: %w", err)
	}
	if places == nil {
		places = []Place{}
	}
	span.SetAttributes(attribute.Int("geocode.results", len(places)))
	return places, nil
}

// Reverse returns the place at the given coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	ctx, span := c.tracer.Start(ctx, "geocode.reverse")
	defer span.End()

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", strconv.Itoa(reverseZoom))

	// Nominatim answers 200 with an "error" member when nothing is there.
	var result struct {
		Place
		Error string `json:"error"`
	}
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("reverse geocoding failed",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if result.Error != "" || (result.PlaceID == 0 && result.DisplayName == "") {
		return nil, ErrNotFound
	}
	place := result.Place
	return &place, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.retrier.Do(ctx, "nominatim", func(ctx context.Context) error {
		return c.getOnce(ctx, path, params, out)
	})
}

// backoff is the wait before retry n: Retry-After (default 1s) on 429, n*retryDelay otherwise.
func (c *Client) backoff(retry int, err error) time.Duration {
	var se *resilience.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		if se.RetryAfter > 0 {
			return se.RetryAfter
		}
		return time.Second
	}
	return time.Duration(retry) * c.retryDelay
}

func (c *Client) getOnce(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resilience.NewStatusError(resp, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

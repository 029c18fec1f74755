package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/logging"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/orchestration"
)

// Stream event types
const (
	StreamProviderResult = "provider_result"
	StreamEnd            = "end"
	StreamError          = "error"
)

const (
	requestReadTimeout = 10 * time.Second
	writeTimeout       = 10 * time.Second
)

// StreamEvent is one frame sent to a streaming search client.
type StreamEvent struct {
	EventType string `json:"event_type"`
	Data      any    `json:"data"`
}

// EventStream serves the websocket search endpoint. The client sends one
// SearchRequest and receives each provider's result as it settles, then the
// merged events.
type EventStream struct {
	orchestrator Orchestrator
	deadline     time.Duration
	logger       *zap.Logger
	tracer       trace.Tracer
	upgrader     websocket.Upgrader
}

// NewEventStream creates the websocket search endpoint
func NewEventStream(orch Orchestrator, cfg *config.Config, logger *zap.Logger) *EventStream {
	logger = logging.OrNop(logger)
	origins := cfg.Server.AllowedOrigins
	return &EventStream{
		orchestrator: orch,
		deadline:     cfg.Server.RequestDeadline,
		logger:       logger,
		tracer:       otel.Tracer("event-stream"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || originAllowed(origin, origins) {
					return true
				}
				logger.Warn("websocket origin rejected", zap.String("origin", origin))
				return false
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// SearchEvents handles WebSocket /api/ws/events/search
// @Summary Stream an event search
// @Description WebSocket endpoint. Send one SearchRequest message; the server emits a provider_result
// @Description frame per provider, then an end frame with the merged events.
// @Tags events
// @Success 101 "Switching Protocols"
// @Router /ws/events/search [get]
func (s *EventStream) SearchEvents(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "event_stream.search_events")
	defer span.End()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	w := &frameWriter{conn: conn}

	var req models.SearchRequest
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		span.RecordError(err)
		s.logger.Debug("invalid stream request", zap.Error(err))
		w.send(StreamEvent{EventType: StreamError, Data: models.ErrorResponse{Error: "Invalid request", Details: err.Error()}})
		w.close(websocket.CloseUnsupportedData, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" || req.Location.IsZero() {
		w.send(StreamEvent{EventType: StreamError, Data: models.ErrorResponse{
			Error:   "Missing required parameters",
			Details: "Location and query are required",
		}})
		w.close(websocket.ClosePolicyViolation, "missing parameters")
		return
	}

	span.SetAttributes(attribute.String("search.query", req.Query))

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	// Stop early when the client hangs up.
	go func() {
		_ = conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	events := s.orchestrator.SearchEventsStream(ctx, req, func(r orchestration.ProviderResult) {
		w.send(StreamEvent{EventType: StreamProviderResult, Data: r})
	})

	if errors.Is(ctx.Err(), context.Canceled) {
		s.logger.Debug("stream client disconnected")
		return
	}
	span.SetAttributes(attribute.Int("events.count", len(events)))
	w.send(StreamEvent{EventType: StreamEnd, Data: gin.H{"events": events}})
	w.close(websocket.CloseNormalClosure, "")
}

// frameWriter serializes writes to conn and stops after the first failure.
type frameWriter struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	failed bool
}

func (w *frameWriter) send(ev StreamEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failed {
		return
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := w.conn.WriteJSON(ev); err != nil {
		w.failed = true
	}
}

func (w *frameWriter) close(code int, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failed {
		return
	}
	msg := websocket.FormatCloseMessage(code, text)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

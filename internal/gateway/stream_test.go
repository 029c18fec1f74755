package gateway

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/orchestration"
)

type frame struct {
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data"`
}

func dialStream(t *testing.T, orch *MockOrchestrator) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	stream := NewEventStream(orch, testConfig("development"), nil)
	router.GET("/api/ws/events/search", stream.SearchEvents)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/events/search"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrames(t *testing.T, conn *websocket.Conn) []frame {
	t.Helper()
	var frames []frame
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return frames
		}
		frames = append(frames, f)
	}
}

func TestEventStream_SearchEvents(t *testing.T) {
	orch := &MockOrchestrator{
		events: []models.Event{{ID: "1", Name: "Jazz Night", Start: "2024-06-01", Source: "eventbrite"}},
		results: []orchestration.ProviderResult{
			{Provider: "eventbrite", Events: []models.Event{{ID: "1", Name: "Jazz Night", Start: "2024-06-01", Source: "eventbrite"}}},
			{Provider: "ticketmaster", Events: []models.Event{}, Error: "circuit breaker is open", Skipped: true},
		},
	}
	conn := dialStream(t, orch)

	require.NoError(t, conn.WriteJSON(map[string]any{"query": "jazz", "location": "Brooklyn"}))
	frames := readFrames(t, conn)

	require.Len(t, frames, 3)
	assert.Equal(t, StreamProviderResult, frames[0].EventType)
	assert.Equal(t, "eventbrite", frames[0].Data["provider"])
	assert.Equal(t, StreamProviderResult, frames[1].EventType)
	assert.Equal(t, true, frames[1].Data["skipped"])
	assert.Equal(t, StreamEnd, frames[2].EventType)
	assert.Len(t, frames[2].Data["events"], 1)

	assert.Equal(t, models.TextLocation("Brooklyn"), orch.LastSearch().Location)
}

func TestEventStream_InvalidRequest(t *testing.T) {
	tests := []struct {
		name    string
		message string
		details string
	}{
		{name: "missing_location", message: `{"query":"jazz"}`, details: "Location and query are required"},
		{name: "not_json", message: `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &MockOrchestrator{}
			conn := dialStream(t, orch)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.message)))
			frames := readFrames(t, conn)

			require.Len(t, frames, 1)
			assert.Equal(t, StreamError, frames[0].EventType)
			if tt.details != "" {
				assert.Equal(t, tt.details, frames[0].Data["details"])
			}
			assert.Zero(t, orch.SearchCalls())
		})
	}
}

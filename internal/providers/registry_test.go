package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
)

func TestNewEventSearchers_Order(t *testing.T) {
	cfg := &config.Config{}
	cfg.Orchestrator.EventProviders = []string{config.RealTime, config.Eventbrite, config.Ticketmaster}

	searchers, err := NewEventSearchers(cfg, Deps{})
	require.NoError(t, err)
	require.Len(t, searchers, 3)
	assert.Equal(t, "realtime", searchers[0].Name())
	assert.Equal(t, "eventbrite", searchers[1].Name())
	assert.Equal(t, "ticketmaster", searchers[2].Name())

	cfg.Orchestrator.EventProviders = []string{"meetup"}
	_, err = NewEventSearchers(cfg, Deps{})
	assert.Error(t, err)
}

func TestNewAIProviders(t *testing.T) {
	cfg := &config.Config{}
	cfg.Providers.Anthropic.APIKey = "a"

	ai := NewAIProviders(cfg, Deps{})
	assert.Equal(t, "anthropic", ai.Suggestions.Name())
	assert.True(t, ai.Suggestions.Available())
	assert.Equal(t, "perplexity", ai.Insights.Name())
	assert.False(t, ai.Insights.Available())
}

package providers

import (
	"fmt"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
)

// NewEventSearchers builds the event adapters in the configured fan-out order.
func NewEventSearchers(cfg *config.Config, deps Deps) ([]EventSearcher, error) {
	out := make([]EventSearcher, 0, len(cfg.Orchestrator.EventProviders))
	for _, name := range cfg.Orchestrator.EventProviders {
		switch name {
		case config.Eventbrite:
			out = append(out, NewEventbrite(cfg.Providers.Eventbrite, deps))
		case config.Ticketmaster:
			out = append(out, NewTicketmaster(cfg.Providers.Ticketmaster, deps))
		case config.RealTime:
			out = append(out, NewRealTime(cfg.Providers.RealTime, deps))
		default:
			return nil, fmt.Errorf("unknown event provider: %s", name)
		}
	}
	return out, nil
}

// AIProviders holds the suggestion generator and the insights generator.
type AIProviders struct {
	Suggestions SuggestionGenerator
	Insights    SuggestionGenerator
}

func NewAIProviders(cfg *config.Config, deps Deps) AIProviders {
	return AIProviders{
		Suggestions: NewAnthropic(cfg.Providers.Anthropic, deps),
		Insights:    NewPerplexity(cfg.Providers.Perplexity, deps),
	}
}

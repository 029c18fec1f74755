package providers

import (
	"context"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

// Perplexity generates date insights with the Perplexity chat completions API
type Perplexity struct {
	base
}

func NewPerplexity(cfg config.Provider, deps Deps) *Perplexity {
	return &Perplexity{base: newBase(config.Perplexity, cfg, deps)}
}

type perplexityRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *Perplexity) GenerateSuggestion(ctx context.Context, params models.SuggestionParams) (models.AIResponse, error) {
	if !p.available {
		p.skip(ctx, OpGenerateSuggestion)
		return models.AIResponse{
			Message: "Date insights service is currently unavailable",
			Error:   unavailableError,
		}, nil
	}

	resp, err := call(ctx, &p.base, OpGenerateSuggestion, params, func(ctx context.Context) (models.AIResponse, error) {
		body := perplexityRequest{
			Model:       p.cfg.Model,
			Messages:    []chatMessage{{Role: "user", Content: insightsPrompt(params)}},
			Temperature: aiTemperature,
		}
		headers := map[string]string{"Authorization": "Bearer " + p.cfg.APIKey}
		var out perplexityResponse
		if err := p.postJSON(ctx, "/chat/completions", body, headers, &out); err != nil {
			return models.AIResponse{}, err
		}
		if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
			return models.AIResponse{}, invalidResponse(p.name)
		}
		return models.AIResponse{Message: out.Choices[0].Message.Content}, nil
	})
	if err != nil {
		return aiFailure("Failed to generate date insights", err), err
	}
	return resp, nil
}

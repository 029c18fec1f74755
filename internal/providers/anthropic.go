package providers

import (
	"context"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

const anthropicVersion = "2023-06-01"

// Anthropic generates date suggestions with the Anthropic Messages API
type Anthropic struct {
	base
}

func NewAnthropic(cfg config.Provider, deps Deps) *Anthropic {
	return &Anthropic{base: newBase(config.Anthropic, cfg, deps)}
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) GenerateSuggestion(ctx context.Context, params models.SuggestionParams) (models.AIResponse, error) {
	if !a.available {
		a.skip(ctx, OpGenerateSuggestion)
		return models.AIResponse{
			Message: "AI suggestions service is currently unavailable",
			Error:   unavailableError,
		}, nil
	}

	resp, err := call(ctx, &a.base, OpGenerateSuggestion, params, func(ctx context.Context) (models.AIResponse, error) {
		body := anthropicRequest{
			Model:       a.cfg.Model,
			MaxTokens:   aiMaxTokens,
			Messages:    []chatMessage{{Role: "user", Content: suggestionPrompt(params)}},
			Temperature: aiTemperature,
		}
		headers := map[string]string{
			"x-api-key":         a.cfg.APIKey,
			"anthropic-version": anthropicVersion,
		}
		var out anthropicResponse
		if err := a.postJSON(ctx, "/messages", body, headers, &out); err != nil {
			return models.AIResponse{}, err
		}
		if len(out.Content) == 0 || out.Content[0].Text == "" {
			return models.AIResponse{}, invalidResponse(a.name)
		}
		return models.AIResponse{Message: out.Content[0].Text}, nil
	})
	if err != nil {
		return aiFailure("Failed to generate AI suggestions", err), err
	}
	return resp, nil
}

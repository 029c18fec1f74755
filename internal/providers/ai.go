package providers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bizmatters/dateai/orchestrator/internal/models"
	"github.com/bizmatters/dateai/orchestrator/internal/resilience"
)

const (
	aiMaxTokens   = 1000
	aiTemperature = 0.7

	unavailableError = "Service unavailable - missing API key"
	parseFailed      = "Failed to parse AI response"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func invalidResponse(source string) *resilience.APIError {
	return resilience.NewAPIError(source, models.ErrCodeInvalidResponse, http.StatusBadGateway, "Invalid AI response format")
}

// aiFailure builds the in-band response for a failed generation.
func aiFailure(message string, err error) models.AIResponse {
	reason := err.Error()
	var apiErr *resilience.APIError
	if errors.As(err, &apiErr) {
		reason = apiErr.Message
		if apiErr.Code == models.ErrCodeInvalidResponse {
			message = parseFailed
		}
	}
	return models.AIResponse{Message: message, Error: reason}
}

func suggestionPrompt(params models.SuggestionParams) string {
	return fmt.Sprintf(`Generate personalized date suggestions for the following:

Date idea: %s
Location: %s

Please cover:
1. An analysis of this date idea
2. Local attractions and culture, the best time to go, likely challenges, and tips for making it special
3. Complementary activities or alternatives
4. Practical advice alongside creative suggestions

Structure the answer so it is easy to read and act on.`, params.IdeaText, params.Location)
}

func insightsPrompt(params models.SuggestionParams) string {
	return fmt.Sprintf(`Analyze this date idea and provide detailed insights:

Date idea: %s
Location: %s

Please cover:
1. An analysis of the date idea
2. Challenges or considerations
3. Personalized recommendations
4. Alternatives with the same theme
5. Tips for making the experience memorable
6. Local insights specific to the location

Keep the insights practical and actionable.`, params.IdeaText, params.Location)
}

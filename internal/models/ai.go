package models

// AIResponse carries generated text. Failures are reported in Error instead of
// being returned to the caller.
type AIResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the response carries an error.
func (r AIResponse) Failed() bool {
	return r.Error != ""
}

// SuggestionParams is the input to an AI suggestion provider
type SuggestionParams struct {
	IdeaText string `json:"dateIdea"`
	Location string `json:"location"`
}

// DatePlanRequest represents a date plan request
type DatePlanRequest struct {
	Location    string   `json:"location"`
	Preferences string   `json:"preferences"`
	Budget      *float64 `json:"budget,omitempty"`
	Date        string   `json:"date,omitempty"`
}

// DatePlan is the composite result of a date plan request
type DatePlan struct {
	Suggestions AIResponse `json:"suggestions"`
	Events      []Event    `json:"events"`
	Insights    AIResponse `json:"insights"`
}

// CircuitStatus is a provider's circuit breaker state
type CircuitStatus struct {
	State    string `json:"state"`
	Failures uint32 `json:"consecutive_failures"`
}

// HealthResponse reports which upstream credentials are configured and
// the circuit state of each provider
type HealthResponse struct {
	Status   string                   `json:"status"`
	Services map[string]bool          `json:"services"`
	Circuits map[string]CircuitStatus `json:"circuits"`
	Env      string                   `json:"env"`
}

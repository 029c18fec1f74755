package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error codes used in normalized upstream errors
const (
	ErrCodeAPIError        = "API_ERROR"
	ErrCodeUnknown         = "UNKNOWN_ERROR"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeCircuitOpen     = "CIRCUIT_OPEN"
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

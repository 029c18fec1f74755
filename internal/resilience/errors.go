package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

// APIError is the normalized failure of one upstream call.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Source  string `json:"source"`
	Details any    `json:"details,omitempty"`

	wrapped error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s (code=%s status=%d)", e.Source, e.Message, e.Code, e.Status)
}

func (e *APIError) Unwrap() error { return e.wrapped }

// NewAPIError builds an APIError explicitly.
func NewAPIError(source, code string, status int, message string) *APIError {
	return &APIError{Message: message, Code: code, Status: status, Source: source}
}

// StatusError is returned by upstream calls that completed with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       []byte
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, body)
}

// NewStatusError captures a failed response. The body must already be read.
func NewStatusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode, Body: body}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			se.RetryAfter = d
		}
	}
	return se
}

// Normalize converts any failure into an APIError attributed to source.
func Normalize(err error, source string) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var se *StatusError
	if errors.As(err, &se) {
		out := &APIError{
			Message: "API request failed",
			Code:    models.ErrCodeAPIError,
			Status:  se.StatusCode,
			Source:  source,
			wrapped: err,
		}
		var body map[string]any
		if json.Unmarshal(se.Body, &body) == nil {
			if msg, ok := body["message"].(string); ok && msg != "" {
				out.Message = msg
			}
			if code, ok := body["code"].(string); ok && code != "" {
				out.Code = code
			}
			out.Details = body
		} else if len(se.Body) > 0 {
			out.Details = string(se.Body)
		}
		return out
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{
			Message: "upstream request timed out",
			Code:    models.ErrCodeTimeout,
			Status:  http.StatusGatewayTimeout,
			Source:  source,
			wrapped: err,
		}
	}

	msg := err.Error()
	if msg == "" {
		msg = "Unknown error"
	}
	return &APIError{
		Message: msg,
		Code:    models.ErrCodeUnknown,
		Status:  http.StatusInternalServerError,
		Source:  source,
		wrapped: err,
	}
}

// IsTransient reports whether err is worth another attempt:
// network failures, 5xx and 429 responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

func newTestRetrier(policy RetryPolicy) (*Retrier, *[]time.Duration) {
	r := NewRetrier(policy, nil)
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return r, &slept
}

func TestRetrier_Backoff(t *testing.T) {
	r := NewRetrier(RetryPolicy{MaxAttempts: 6, BaseDelay: time.Second, MaxDelay: 5 * time.Second}, nil)

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, r.Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestRetrier_Do(t *testing.T) {
	serverErr := &StatusError{StatusCode: http.StatusBadGateway, Body: []byte(`{"message":"bad gateway","code":"UPSTREAM_DOWN"}`)}
	clientErr := &StatusError{StatusCode: http.StatusBadRequest, Body: []byte(`{"message":"bad query"}`)}

	tests := []struct {
		name          string
		policy        RetryPolicy
		errs          []error
		expectedCalls int
		expectedSleep []time.Duration
		expectedCode  string
		expectedMsg   string
		expectSuccess bool
	}{
		{
			name:          "succeeds_after_transient_failures",
			policy:        RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second},
			errs:          []error{serverErr, serverErr, nil},
			expectedCalls: 3,
			expectedSleep: []time.Duration{time.Second, 2 * time.Second},
			expectSuccess: true,
		},
		{
			name:          "exhausts_attempts",
			policy:        RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second},
			errs:          []error{serverErr, serverErr, serverErr},
			expectedCalls: 3,
			expectedSleep: []time.Duration{time.Second, 2 * time.Second},
			expectedCode:  "UPSTREAM_DOWN",
			expectedMsg:   "bad gateway",
		},
		{
			name:          "client_error_not_retried",
			policy:        RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second},
			errs:          []error{clientErr},
			expectedCalls: 1,
			expectedCode:  models.ErrCodeAPIError,
			expectedMsg:   "bad query",
		},
		{
			name:          "retry_all_errors_retries_client_error",
			policy:        RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 5 * time.Second, RetryAllErrors: true},
			errs:          []error{clientErr, clientErr},
			expectedCalls: 2,
			expectedSleep: []time.Duration{time.Second},
			expectedCode:  models.ErrCodeAPIError,
		},
		{
			name:          "unknown_error",
			policy:        RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 5 * time.Second, RetryAllErrors: true},
			errs:          []error{errors.New("decode failed"), errors.New("decode failed")},
			expectedCalls: 2,
			expectedSleep: []time.Duration{time.Second},
			expectedCode:  models.ErrCodeUnknown,
			expectedMsg:   "decode failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, slept := newTestRetrier(tt.policy)
			calls := 0
			err := r.Do(context.Background(), "eventbrite", func(ctx context.Context) error {
				e := tt.errs[calls]
				calls++
				return e
			})

			assert.Equal(t, tt.expectedCalls, calls)
			if len(tt.expectedSleep) == 0 {
				assert.Empty(t, *slept)
			} else {
				assert.Equal(t, tt.expectedSleep, *slept)
			}

			if tt.expectSuccess {
				assert.NoError(t, err)
				return
			}
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "eventbrite", apiErr.Source)
			assert.Equal(t, tt.expectedCode, apiErr.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, apiErr.Message)
			}
		})
	}
}

func TestRetrier_StopsOnContextCancel(t *testing.T) {
	r := NewRetrier(RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	err := r.Do(ctx, "ticketmaster", func(ctx context.Context) error {
		calls++
		return &StatusError{StatusCode: http.StatusServiceUnavailable}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNormalize(t *testing.T) {
	t.Run("status error without json body", func(t *testing.T) {
		err := Normalize(&StatusError{StatusCode: 503, Body: []byte("down")}, "realtime")
		assert.Equal(t, "API request failed", err.Message)
		assert.Equal(t, models.ErrCodeAPIError, err.Code)
		assert.Equal(t, 503, err.Status)
		assert.Equal(t, "down", err.Details)
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		err := Normalize(context.DeadlineExceeded, "anthropic")
		assert.Equal(t, models.ErrCodeTimeout, err.Code)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("generic error", func(t *testing.T) {
		err := Normalize(errors.New("boom"), "perplexity")
		assert.Equal(t, models.ErrCodeUnknown, err.Code)
		assert.Equal(t, http.StatusInternalServerError, err.Status)
	})

	t.Run("api error passes through", func(t *testing.T) {
		orig := NewAPIError("eventbrite", models.ErrCodeUnavailable, 503, "missing key")
		assert.Same(t, orig, Normalize(orig, "other"))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Normalize(nil, "x"))
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&StatusError{StatusCode: 500}))
	assert.True(t, IsTransient(&StatusError{StatusCode: 429}))
	assert.False(t, IsTransient(&StatusError{StatusCode: 404}))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(errors.New("decode")))
}

func TestRetrier_HonorsRetryAfter(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expected   time.Duration
		maxDelay   time.Duration
		customWait func(int, error) time.Duration
	}{
		{
			name:     "retry_after_longer_than_backoff",
			err:      &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second},
			maxDelay: 10 * time.Second,
			expected: 3 * time.Second,
		},
		{
			name:     "retry_after_capped_at_max_delay",
			err:      &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Minute},
			maxDelay: 5 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "backoff_wins_over_shorter_retry_after",
			err:      &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 100 * time.Millisecond},
			maxDelay: 5 * time.Second,
			expected: time.Second,
		},
		{
			name:     "retry_after_ignored_on_server_error",
			err:      &StatusError{StatusCode: http.StatusServiceUnavailable, RetryAfter: 3 * time.Second},
			maxDelay: 10 * time.Second,
			expected: time.Second,
		},
		{
			name:       "custom_delay",
			err:        &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second},
			maxDelay:   10 * time.Second,
			customWait: func(attempt int, err error) time.Duration { return 42 * time.Millisecond },
			expected:   42 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slept []time.Duration
			r := NewRetrier(RetryPolicy{
				MaxAttempts: 2,
				BaseDelay:   time.Second,
				MaxDelay:    tt.maxDelay,
				Delay:       tt.customWait,
				Sleep: func(_ context.Context, d time.Duration) error {
					slept = append(slept, d)
					return nil
				},
			}, nil)

			calls := 0
			err := r.Do(context.Background(), "ticketmaster", func(ctx context.Context) error {
				calls++
				if calls == 1 {
					return tt.err
				}
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, []time.Duration{tt.expected}, slept)
		})
	}
}

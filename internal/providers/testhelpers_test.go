package providers

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/resilience"
)

func testDeps() Deps {
	return Deps{
		Cache:   resilience.NewCache(),
		Limiter: resilience.NewRateLimiter(),
		Retrier: resilience.NewRetrier(resilience.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    2 * time.Millisecond,
		}, nil),
	}
}

func testProviderConfig(baseURL string) config.Provider {
	return config.Provider{
		APIKey:    "test-key",
		BaseURL:   baseURL,
		Model:     "test-model",
		Timeout:   5 * time.Second,
		CacheTTL:  time.Minute,
		RateLimit: config.RateLimit{MaxRequests: 100, Window: time.Minute},
	}
}

// countingServer counts requests before delegating to handler.
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "EVENTBRITE_API_KEY", "TICKETMASTER_API_KEY",
		"RAPIDAPI_KEY", "ANTHROPIC_API_KEY", "PERPLEXITY_API_KEY", "NOMINATIM_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 25*time.Second, cfg.Server.RequestDeadline)
	assert.Equal(t, 15*time.Second, cfg.Orchestrator.ProviderTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Orchestrator.CacheTTL)
	assert.Equal(t, []string{Eventbrite, Ticketmaster, RealTime}, cfg.Orchestrator.EventProviders)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 5*time.Second, cfg.Retry.MaxDelay)
	assert.False(t, cfg.Retry.RetryAllErrors)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.Breaker.ResetTimeout)

	assert.Equal(t, 1000, cfg.Providers.Eventbrite.RateLimit.MaxRequests)
	assert.Equal(t, time.Hour, cfg.Providers.Eventbrite.RateLimit.Window)
	assert.Equal(t, 200, cfg.Providers.Ticketmaster.RateLimit.MaxRequests)
	assert.Equal(t, 100, cfg.Providers.RealTime.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Providers.RealTime.RateLimit.Window)
	assert.Equal(t, 50, cfg.Providers.Anthropic.RateLimit.MaxRequests)
	assert.Equal(t, 60, cfg.Providers.Perplexity.RateLimit.MaxRequests)
	assert.Equal(t, 5*time.Minute, cfg.Providers.Ticketmaster.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Providers.Anthropic.CacheTTL)

	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocode.BaseURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("EVENTBRITE_API_KEY", " eb-key ")
	t.Setenv("RAPIDAPI_KEY", "rapid")
	t.Setenv("NOMINATIM_URL", "http://geo.local")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "eb-key", cfg.Providers.Eventbrite.APIKey)
	assert.Equal(t, "http://geo.local", cfg.Geocode.BaseURL)
	assert.Equal(t, "rapid", cfg.Providers.RealTime.APIKey)
	assert.Empty(t, cfg.Providers.Anthropic.APIKey)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKETMASTER_API_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
env: staging
server:
  port: "7070"
  request_deadline: 20s
providers:
  ticketmaster:
    api_key: from-file
    base_url: http://tm.local/
    rate_limit:
      max_requests: 10
      window: 1s
retry:
  max_attempts: 2
  retry_all_errors: true
orchestrator:
  provider_timeout: 5s
  event_providers: [realtime, eventbrite]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.RequestDeadline)
	assert.Equal(t, "from-env", cfg.Providers.Ticketmaster.APIKey, "environment wins over file")
	assert.Equal(t, "http://tm.local", cfg.Providers.Ticketmaster.BaseURL)
	assert.Equal(t, 10, cfg.Providers.Ticketmaster.RateLimit.MaxRequests)
	assert.Equal(t, time.Second, cfg.Providers.Ticketmaster.RateLimit.Window)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Retry.RetryAllErrors)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.ProviderTimeout)
	assert.Equal(t, []string{RealTime, Eventbrite}, cfg.Orchestrator.EventProviders)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedError string
	}{
		{
			name:          "invalid_yaml",
			content:       "server: [",
			expectedError: "parse yaml",
		},
		{
			name:          "unknown_event_provider",
			content:       "orchestrator:\n  event_providers: [meetup]\n",
			expectedError: "unknown event provider: meetup",
		},
		{
			name:          "duplicate_event_provider",
			content:       "orchestrator:\n  event_providers: [eventbrite, eventbrite]\n",
			expectedError: "listed twice",
		},
		{
			name:          "provider_timeout_exceeds_deadline",
			content:       "server:\n  request_deadline: 10s\norchestrator:\n  provider_timeout: 15s\n",
			expectedError: "must be shorter than",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}

	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})
}

func TestConfig_Provider(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	p, ok := cfg.Provider(Perplexity)
	require.True(t, ok)
	assert.Equal(t, "https://api.perplexity.ai", p.BaseURL)

	_, ok = cfg.Provider("meetup")
	assert.False(t, ok)
}

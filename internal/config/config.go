package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Upstream service keys. They double as the health endpoint's credential names.
const (
	Eventbrite   = "eventbrite"
	Ticketmaster = "ticketmaster"
	RealTime     = "realtime"
	Anthropic    = "anthropic"
	Perplexity   = "perplexity"
)

type Server struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// RequestDeadline bounds a whole search or plan request; exceeding it yields 408.
	RequestDeadline time.Duration `yaml:"request_deadline"`
	// AllowedOrigins lists exact origins or host patterns ("*.vercel.app", "localhost").
	// Empty allows every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RateLimit struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type Provider struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	RateLimit RateLimit     `yaml:"rate_limit"`
}

type Providers struct {
	Eventbrite   Provider `yaml:"eventbrite"`
	Ticketmaster Provider `yaml:"ticketmaster"`
	RealTime     Provider `yaml:"realtime"`
	Anthropic    Provider `yaml:"anthropic"`
	Perplexity   Provider `yaml:"perplexity"`
}

type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	// RetryAllErrors retries client errors (4xx) too instead of only
	// network errors, 5xx and 429.
	RetryAllErrors bool `yaml:"retry_all_errors"`
}

type Breaker struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

type Orchestrator struct {
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	// EventProviders fixes the fan-out order, which decides which duplicate wins.
	EventProviders []string `yaml:"event_providers"`
}

type Geocode struct {
	BaseURL    string        `yaml:"base_url"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type Config struct {
	Env          string       `yaml:"env"`
	Server       Server       `yaml:"server"`
	Providers    Providers    `yaml:"providers"`
	Retry        Retry        `yaml:"retry"`
	Breaker      Breaker      `yaml:"breaker"`
	Orchestrator Orchestrator `yaml:"orchestrator"`
	Geocode      Geocode      `yaml:"geocode"`
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Provider returns the settings of the named upstream.
func (c *Config) Provider(name string) (Provider, bool) {
	switch name {
	case Eventbrite:
		return c.Providers.Eventbrite, true
	case Ticketmaster:
		return c.Providers.Ticketmaster, true
	case RealTime:
		return c.Providers.RealTime, true
	case Anthropic:
		return c.Providers.Anthropic, true
	case Perplexity:
		return c.Providers.Perplexity, true
	default:
		return Provider{}, false
	}
}

// Load reads an optional YAML file, applies environment overrides and fills defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	c.applyEnv()
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnv builds the configuration from environment variables and defaults only.
func FromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func (c *Config) applyEnv() {
	setString(&c.Env, "APP_ENV")
	setString(&c.Server.Port, "PORT")
	setString(&c.Providers.Eventbrite.APIKey, "EVENTBRITE_API_KEY")
	setString(&c.Providers.Ticketmaster.APIKey, "TICKETMASTER_API_KEY")
	setString(&c.Providers.RealTime.APIKey, "RAPIDAPI_KEY")
	setString(&c.Providers.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&c.Providers.Perplexity.APIKey, "PERPLEXITY_API_KEY")
	setString(&c.Geocode.BaseURL, "NOMINATIM_URL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}

	// Server
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.RequestDeadline == 0 {
		c.Server.RequestDeadline = 25 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 && c.IsProduction() {
		c.Server.AllowedOrigins = []string{"*.vercel.app", "*.netlify.app", "*.netlify.com", "localhost"}
	}

	// Providers
	providerDefaults(&c.Providers.Eventbrite, "https://www.eventbriteapi.com/v3", 1000, time.Hour, 5*time.Minute)
	providerDefaults(&c.Providers.Ticketmaster, "https://app.ticketmaster.com/discovery/v2", 200, time.Hour, 5*time.Minute)
	providerDefaults(&c.Providers.RealTime, "https://real-time-events-search.p.rapidapi.com", 100, time.Minute, 5*time.Minute)
	providerDefaults(&c.Providers.Anthropic, "https://api.anthropic.com/v1", 50, time.Minute, 30*time.Minute)
	providerDefaults(&c.Providers.Perplexity, "https://api.perplexity.ai", 60, time.Minute, 30*time.Minute)
	if c.Providers.Anthropic.Model == "" {
		c.Providers.Anthropic.Model = "claude-3-opus-20240229"
	}
	if c.Providers.Perplexity.Model == "" {
		c.Providers.Perplexity.Model = "sonar-medium-online"
	}

	// Retry
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 5 * time.Second
	}

	// Breaker
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.ResetTimeout == 0 {
		c.Breaker.ResetTimeout = 60 * time.Second
	}

	// Orchestrator
	if c.Orchestrator.ProviderTimeout == 0 {
		c.Orchestrator.ProviderTimeout = 15 * time.Second
	}
	if c.Orchestrator.CacheTTL == 0 {
		c.Orchestrator.CacheTTL = 5 * time.Minute
	}
	if len(c.Orchestrator.EventProviders) == 0 {
		c.Orchestrator.EventProviders = []string{Eventbrite, Ticketmaster, RealTime}
	}

	// Geocode
	if c.Geocode.BaseURL == "" {
		c.Geocode.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocode.UserAgent == "" {
		c.Geocode.UserAgent = "DateAI/2.0 (https://mydateapp.vercel.app)"
	}
	if c.Geocode.Timeout == 0 {
		c.Geocode.Timeout = 10 * time.Second
	}
	if c.Geocode.MaxRetries == 0 {
		c.Geocode.MaxRetries = 3
	}
}

func providerDefaults(p *Provider, baseURL string, maxRequests int, window, cacheTTL time.Duration) {
	if p.BaseURL == "" {
		p.BaseURL = baseURL
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.CacheTTL == 0 {
		p.CacheTTL = cacheTTL
	}
	if p.RateLimit.MaxRequests == 0 {
		p.RateLimit.MaxRequests = maxRequests
	}
	if p.RateLimit.Window == 0 {
		p.RateLimit.Window = window
	}
}

func (c *Config) validate() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Orchestrator.ProviderTimeout >= c.Server.RequestDeadline {
		return fmt.Errorf("orchestrator.provider_timeout (%s) must be shorter than server.request_deadline (%s)",
			c.Orchestrator.ProviderTimeout, c.Server.RequestDeadline)
	}
	seen := make(map[string]bool, len(c.Orchestrator.EventProviders))
	for _, name := range c.Orchestrator.EventProviders {
		switch name {
		case Eventbrite, Ticketmaster, RealTime:
		default:
			return fmt.Errorf("unknown event provider: %s", name)
		}
		if seen[name] {
			return fmt.Errorf("event provider listed twice: %s", name)
		}
		seen[name] = true
	}
	return nil
}

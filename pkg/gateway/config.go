package gateway

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds gateway client configuration.
type Config struct {
	// Connection
	BaseURL string // e.g. "http://host.docker.internal:11434"

	// Generation
	Model   string
	Persona string

	// Timeouts. PullTimeout of zero leaves pulls bounded by ctx only.
	Timeout     time.Duration
	PullTimeout time.Duration

	// Retry configuration. Zero retries keeps a single attempt.
	MaxRetries int
	RetryDelay time.Duration

	// Circuit breaker: open after BreakerFailures consecutive failures,
	// probe again after BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration

	// HTTPClient overrides the generated client (tests).
	HTTPClient *http.Client

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBaseURL sets the gateway base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithPersona replaces the persona preamble.
func WithPersona(persona string) Option {
	return func(c *Config) { c.Persona = persona }
}

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithPullTimeout bounds model downloads.
func WithPullTimeout(d time.Duration) Option {
	return func(c *Config) { c.PullTimeout = d }
}

// WithRetry configures retry behavior for 5xx and connectivity failures.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithBreaker configures the circuit breaker.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *Config) {
		c.BreakerFailures = failures
		c.BreakerCooldown = cooldown
	}
}

// WithHTTPClient sets the HTTP client used for generation and listing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for a local Ollama.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "http://host.docker.internal:11434",
		Model:           "qwen2.5:7b",
		Persona:         Persona,
		Timeout:         30 * time.Second,
		MaxRetries:      0,
		RetryDelay:      200 * time.Millisecond,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
		Logger:          slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.Model == "" {
		return ErrNoModel
	}
	return nil
}

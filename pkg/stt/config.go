package stt

import (
	"log/slog"
	"time"
)

// Config holds transcription engine configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Local engine
	Binary string

	// Remote engine
	BaseURL string
	APIKey  string

	// Recognition
	Model    string
	Language string

	// ScratchDir is where engines keep their intermediate files.
	// Empty means os.TempDir().
	ScratchDir string

	// Timeout bounds a single transcription.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring engines.
type Option func(*Config)

// WithBinary sets the whisper.cpp executable.
func WithBinary(path string) Option {
	return func(c *Config) { c.Binary = path }
}

// WithBaseURL sets the OpenAI-compatible endpoint, e.g. "http://whisper:8000/v1".
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the bearer token for the remote engine.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the model: a ggml file for whisper.cpp, a model id remotely.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithLanguage pins the spoken language. Empty lets the engine detect it.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithScratchDir sets the root for intermediate files.
func WithScratchDir(dir string) Option {
	return func(c *Config) { c.ScratchDir = dir }
}

// WithTimeout bounds a single transcription.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for a Spanish-speaking storefront.
func DefaultConfig() *Config {
	return &Config{
		Binary:   "whisper-cli",
		Language: "es",
		Timeout:  2 * time.Minute,
		Logger:   slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Synthesizer
	Binary     string
	VoiceModel string

	// ScratchDir is the root for per-call output files. Empty means os.TempDir().
	ScratchDir string

	// Timeout bounds a single synthesis.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithBinary sets the synthesizer executable.
func WithBinary(path string) Option {
	return func(c *Config) {
		c.Binary = path
	}
}

// WithVoiceModel sets the voice model file.
func WithVoiceModel(path string) Option {
	return func(c *Config) {
		c.VoiceModel = path
	}
}

// WithScratchDir sets the root for output files.
func WithScratchDir(dir string) Option {
	return func(c *Config) {
		c.ScratchDir = dir
	}
}

// WithTimeout bounds a single synthesis.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the fixed Spanish voice.
func DefaultConfig() *Config {
	return &Config{
		Binary:     "piper",
		VoiceModel: "models/es_ES-sharvard-medium.onnx",
		Timeout:    time.Minute,
		Logger:     slog.Default(),
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
	if c.Binary == "" {
		return ErrNoBinary
	}
	if c.VoiceModel == "" {
		return ErrNoVoiceModel
	}
	return nil
}

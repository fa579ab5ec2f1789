package voice

import (
	"log/slog"
)

// Config holds pipeline settings.
type Config struct {
	// ScratchDir is the root for per-request spaces. Empty means os.TempDir().
	ScratchDir string

	// Collector receives every finished turn. Nil disables history.
	Collector *MetricsCollector

	// Logger for pipeline events.
	Logger *slog.Logger
}

// Option is a functional option for configuring the pipeline.
type Option func(*Config)

// WithScratchDir sets the root for per-request scratch spaces.
func WithScratchDir(dir string) Option {
	return func(c *Config) { c.ScratchDir = dir }
}

// WithCollector sets the metrics collector.
func WithCollector(m *MetricsCollector) Option {
	return func(c *Config) { c.Collector = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns a Config with a fresh collector.
func DefaultConfig() *Config {
	return &Config{
		Collector: NewMetricsCollector(),
		Logger:    slog.Default(),
	}
}

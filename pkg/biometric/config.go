package biometric

import (
	"log/slog"
)

// Distance metrics.
const (
	MetricCosine = "cosine"
	MetricL2     = "euclidean_l2"
)

// Published SFace thresholds. Cosine is expressed as a distance (1 - similarity).
const (
	CosineThreshold = 1 - 0.363
	L2Threshold     = 1.128
)

// Config holds verifier and matcher configuration.
type Config struct {
	// Reported model variant and detector backend.
	Model    string
	Detector string

	// Metric is MetricCosine or MetricL2.
	Metric string

	// Threshold overrides the metric's default when non-zero.
	Threshold float64

	// EnforceDetection fails images without a face. When false, the whole
	// image is embedded instead.
	EnforceDetection bool

	// ONNX model files
	DetectorModel   string
	RecognizerModel string

	// ScoreThreshold is the minimum face detection confidence.
	ScoreThreshold float64

	// ScratchDir is the root for per-request spaces. Empty means os.TempDir().
	ScratchDir string

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the verifier.
type Option func(*Config)

// WithMetric sets the distance metric.
func WithMetric(metric string) Option {
	return func(c *Config) { c.Metric = metric }
}

// WithThreshold overrides the metric's default threshold.
func WithThreshold(t float64) Option {
	return func(c *Config) { c.Threshold = t }
}

// WithEnforceDetection toggles failing on images without a face.
func WithEnforceDetection(enforce bool) Option {
	return func(c *Config) { c.EnforceDetection = enforce }
}

// WithModels sets the detector and recognizer model files.
func WithModels(detector, recognizer string) Option {
	return func(c *Config) {
		c.DetectorModel = detector
		c.RecognizerModel = recognizer
	}
}

// WithScratchDir sets the root for per-request scratch spaces.
func WithScratchDir(dir string) Option {
	return func(c *Config) { c.ScratchDir = dir }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:            "SFace",
		Detector:         "yunet",
		Metric:           MetricCosine,
		EnforceDetection: false,
		DetectorModel:    "models/face_detection_yunet_2023mar.onnx",
		RecognizerModel:  "models/face_recognition_sface_2021dec.onnx",
		ScoreThreshold:   0.6,
		Logger:           slog.Default(),
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

// Validate checks the metric.
func (c *Config) Validate() error {
	if c.Metric != MetricCosine && c.Metric != MetricL2 {
		return ErrUnknownMetric
	}
	return nil
}

// EffectiveThreshold returns Threshold, or the metric's default.
func (c *Config) EffectiveThreshold() float64 {
	if c.Threshold > 0 {
		return c.Threshold
	}
	if c.Metric == MetricL2 {
		return L2Threshold
	}
	return CosineThreshold
}

package biometric

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/teslashibe/go-aiservice/pkg/metrics"
	"github.com/teslashibe/go-aiservice/pkg/scratch"
)

// Verifier decodes requests and delegates to a Matcher.
type Verifier struct {
	matcher Matcher
	cfg     *Config
	logger  *slog.Logger
}

// NewVerifier creates a verifier around matcher.
func NewVerifier(matcher Matcher, opts ...Option) (*Verifier, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Verifier{
		matcher: matcher,
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "biometric.verifier"),
	}, nil
}

// Verify compares the captured face against the stored one.
func (v *Verifier) Verify(ctx context.Context, req Request) (*Result, error) {
	captured, err := DecodeImage("captured_image", req.CapturedImage)
	if err != nil {
		metrics.BiometricVerifications.WithLabelValues("invalid").Inc()
		return nil, err
	}
	stored, err := DecodeImage("stored_image", req.StoredImage)
	if err != nil {
		metrics.BiometricVerifications.WithLabelValues("invalid").Inc()
		return nil, err
	}

	space, err := scratch.New(v.cfg.ScratchDir, "face")
	if err != nil {
		return nil, err
	}
	defer space.Close()

	capturedPath, err := space.WriteFile("captured.img", captured)
	if err != nil {
		return nil, err
	}
	storedPath, err := space.WriteFile("stored.img", stored)
	if err != nil {
		return nil, err
	}

	match, err := v.matcher.Match(ctx, capturedPath, storedPath)
	if err != nil {
		metrics.BiometricVerifications.WithLabelValues("error").Inc()
		if errors.Is(err, ErrUndecodableImage) {
			return nil, &ValidationError{Field: "image", Err: err}
		}
		v.logger.Warn("face match failed", "request_id", space.ID(), "error", err)
		return nil, err
	}

	threshold := match.Threshold
	if threshold == 0 || v.cfg.Threshold > 0 {
		threshold = v.cfg.EffectiveThreshold()
	}

	result := &Result{
		Verified:  match.Distance <= threshold,
		Distance:  round(match.Distance),
		Threshold: round(threshold),
		Model:     v.cfg.Model,
		Detector:  v.cfg.Detector,
		Metric:    v.cfg.Metric,
	}

	outcome := "rejected"
	if result.Verified {
		outcome = "verified"
	}
	metrics.BiometricVerifications.WithLabelValues(outcome).Inc()

	v.logger.Info("face verification",
		"request_id", space.ID(),
		"verified", result.Verified,
		"distance", result.Distance,
		"faces_detected", match.FacesDetected,
	)
	return result, nil
}

// Close releases the matcher.
func (v *Verifier) Close() error {
	return v.matcher.Close()
}

func round(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}

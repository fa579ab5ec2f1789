package biometric

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read scratch root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected scratch root to be empty, found %d entries", len(entries))
	}
}

func newTestVerifier(t *testing.T, m Matcher, root string) *Verifier {
	t.Helper()
	v, err := NewVerifier(m, WithScratchDir(root), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	return v
}

func TestVerifyIdentical(t *testing.T) {
	root := t.TempDir()
	v := newTestVerifier(t, NewMock(), root)

	result, err := v.Verify(context.Background(), Request{
		CapturedImage: "data:image/jpeg;base64," + b64("same-face"),
		StoredImage:   b64("same-face"),
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if !result.Verified {
		t.Error("Identical images should verify")
	}
	if result.Distance >= result.Threshold {
		t.Errorf("Distance %v should be below threshold %v", result.Distance, result.Threshold)
	}
	if result.Model != "SFace" || result.Detector != "yunet" || result.Metric != MetricCosine {
		t.Errorf("Unexpected configuration in result: %+v", result)
	}

	assertEmpty(t, root)
}

func TestVerifyDistinct(t *testing.T) {
	root := t.TempDir()
	v := newTestVerifier(t, NewMock(), root)

	result, err := v.Verify(context.Background(), Request{
		CapturedImage: b64("face-a"),
		StoredImage:   b64("face-b"),
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Verified {
		t.Error("Distinct images should not verify")
	}
	assertEmpty(t, root)
}

func TestVerifyMalformed(t *testing.T) {
	root := t.TempDir()
	mock := NewMock()
	v := newTestVerifier(t, mock, root)

	_, err := v.Verify(context.Background(), Request{
		CapturedImage: "%%%garbage%%%",
		StoredImage:   b64("face"),
	})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
	if ve.Field != "captured_image" {
		t.Errorf("Expected captured_image, got %q", ve.Field)
	}
	if len(mock.Pairs()) != 0 {
		t.Error("Matcher should not run on invalid input")
	}
	assertEmpty(t, root)
}

func TestVerifyConcurrentRequestsUseDistinctFiles(t *testing.T) {
	root := t.TempDir()
	mock := NewMock()
	v := newTestVerifier(t, mock, root)

	done := make(chan error, 2)
	for _, img := range []string{"one", "two"} {
		img := img
		go func() {
			_, err := v.Verify(context.Background(), Request{CapturedImage: b64(img), StoredImage: b64(img)})
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
	}

	pairs := mock.Pairs()
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 comparisons, got %d", len(pairs))
	}
	if pairs[0][0] == pairs[1][0] {
		t.Error("Concurrent requests must not share scratch files")
	}
	assertEmpty(t, root)
}

func TestVerifyMatcherErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
	}{
		{"undecodable", ErrUndecodableImage, true},
		{"no face", WrapError("gocv", ErrNoFace), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			mock := &Mock{MatchFunc: func(ctx context.Context, a, b string) (*Match, error) {
				return nil, tt.err
			}}
			v := newTestVerifier(t, mock, root)

			_, err := v.Verify(context.Background(), Request{CapturedImage: b64("a"), StoredImage: b64("b")})

			var ve *ValidationError
			if errors.As(err, &ve) != tt.validation {
				t.Errorf("validation = %v, want %v (%v)", !tt.validation, tt.validation, err)
			}
			assertEmpty(t, root)
		})
	}
}

func TestVerifierThresholdOverride(t *testing.T) {
	mock := &Mock{MatchFunc: func(ctx context.Context, a, b string) (*Match, error) {
		return &Match{Distance: 0.5}, nil
	}}

	strict, _ := NewVerifier(mock, WithThreshold(0.4), WithScratchDir(t.TempDir()), WithLogger(quietLogger()))
	result, err := strict.Verify(context.Background(), Request{CapturedImage: b64("a"), StoredImage: b64("b")})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verified || result.Threshold != 0.4 {
		t.Errorf("Unexpected result: %+v", result)
	}

	lenient, _ := NewVerifier(mock, WithScratchDir(t.TempDir()), WithLogger(quietLogger()))
	result, _ = lenient.Verify(context.Background(), Request{CapturedImage: b64("a"), StoredImage: b64("b")})
	if !result.Verified {
		t.Errorf("0.5 is within the default cosine threshold: %+v", result)
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := NewVerifier(NewMock(), WithMetric("manhattan")); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Expected ErrUnknownMetric, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Apply(WithMetric(MetricL2))
	if cfg.EffectiveThreshold() != L2Threshold {
		t.Errorf("Expected L2 threshold, got %v", cfg.EffectiveThreshold())
	}
}

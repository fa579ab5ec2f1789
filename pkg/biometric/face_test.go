package biometric

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// findModel walks up from the test directory looking for models/name.
func findModel(name string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		p := filepath.Join(dir, "models", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func newTestFaceMatcher(t *testing.T, opts ...Option) *FaceMatcher {
	t.Helper()
	det := findModel("face_detection_yunet_2023mar.onnx")
	rec := findModel("face_recognition_sface_2021dec.onnx")
	if det == "" || rec == "" {
		t.Skip("YuNet/SFace models not found, skipping test")
	}

	m, err := NewFaceMatcher(append([]Option{WithModels(det, rec), WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("NewFaceMatcher failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func writeJPEG(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 160))
	for y := 0; y < 160; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewFaceMatcherMissingModel(t *testing.T) {
	_, err := NewFaceMatcher(WithModels("/nonexistent/yunet.onnx", "/nonexistent/sface.onnx"))
	if err == nil {
		t.Error("Expected error for missing model files")
	}
}

func TestFaceMatcherWholeImageFallback(t *testing.T) {
	m := newTestFaceMatcher(t)
	dir := t.TempDir()
	a := writeJPEG(t, dir, "a.jpg", color.RGBA{200, 150, 120, 255})

	match, err := m.Match(context.Background(), a, a)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if match.FacesDetected[0] || match.FacesDetected[1] {
		t.Error("A flat image has no face")
	}
	if match.Distance > 1e-3 {
		t.Errorf("Same image should have ~0 distance, got %v", match.Distance)
	}
}

func TestFaceMatcherEnforceDetection(t *testing.T) {
	m := newTestFaceMatcher(t, WithEnforceDetection(true))
	a := writeJPEG(t, t.TempDir(), "a.jpg", color.Gray{128})

	if _, err := m.Match(context.Background(), a, a); !errors.Is(err, ErrNoFace) {
		t.Errorf("Expected ErrNoFace, got %v", err)
	}
}

func TestFaceMatcherUndecodable(t *testing.T) {
	m := newTestFaceMatcher(t)
	path := filepath.Join(t.TempDir(), "junk.img")
	os.WriteFile(path, []byte("not an image"), 0o600)

	if _, err := m.Match(context.Background(), path, path); !errors.Is(err, ErrUndecodableImage) {
		t.Errorf("Expected ErrUndecodableImage, got %v", err)
	}
}

func TestSelectBest(t *testing.T) {
	if selectBest(nil) != nil {
		t.Error("Expected nil for no faces")
	}

	boxes := []faceBox{
		{Row: 0, W: 10, H: 10, Confidence: 0.95},
		{Row: 1, W: 100, H: 100, Confidence: 0.90},
		{Row: 2, W: 50, H: 50, Confidence: 0.60},
	}
	best := selectBest(boxes)
	if best == nil || best.Row != 1 {
		t.Errorf("Expected the large confident face, got %+v", best)
	}
}

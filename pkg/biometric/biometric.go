// Package biometric verifies that two face photos show the same person.
//
// Clients send base64 images, optionally wrapped in a data URI. The Verifier
// decodes both, stores them in a per-request scratch space and asks a
// Matcher for the embedding distance between the faces. The pair is verified
// when the distance does not exceed the matcher's threshold.
//
// The production Matcher is FaceMatcher: OpenCV's YuNet detector finds the
// face and SFace embeds it. Mock compares raw bytes and is meant for tests.
package biometric

import (
	"context"
)

// Request carries the two images to compare.
type Request struct {
	CapturedImage string `json:"captured_image"`
	StoredImage   string `json:"stored_image"`
}

// Result is the verification outcome.
type Result struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
	Detector  string  `json:"detector_backend"`
	Metric    string  `json:"distance_metric"`
}

// Match is a raw comparison from a Matcher.
type Match struct {
	Distance  float64
	Threshold float64

	// FacesDetected is false for an image compared without a detected face.
	FacesDetected [2]bool
}

// Matcher compares the faces in two image files.
type Matcher interface {
	// Match returns the distance between the faces in a and b.
	Match(ctx context.Context, a, b string) (*Match, error)

	// Close releases model resources.
	Close() error
}

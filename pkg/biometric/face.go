package biometric

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

const gocvName = "gocv"

// sfaceInput is the side of the aligned crop SFace embeds.
const sfaceInput = 112

// FaceMatcher detects faces with YuNet and compares SFace embeddings.
//
// OpenCV's DNN objects are not safe for concurrent inference, so Match
// serializes calls on a mutex. Models are loaded once and reused.
type FaceMatcher struct {
	detector   gocv.FaceDetectorYN
	recognizer gocv.FaceRecognizerSF
	cfg        *Config
	logger     *slog.Logger

	mu sync.Mutex
}

// NewFaceMatcher loads the detector and recognizer models.
func NewFaceMatcher(opts ...Option) (*FaceMatcher, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, path := range []string{cfg.DetectorModel, cfg.RecognizerModel} {
		if path == "" {
			return nil, ErrNoModel
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("biometric: model file not found: %s", path)
		}
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.DetectorModel,
		"",                 // No config file needed for ONNX
		image.Pt(320, 320), // Updated per image
		float32(cfg.ScoreThreshold),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)
	recognizer := gocv.NewFaceRecognizerSF(cfg.RecognizerModel, "")

	return &FaceMatcher{
		detector:   detector,
		recognizer: recognizer,
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "biometric.face"),
	}, nil
}

// Match implements Matcher.
func (f *FaceMatcher) Match(ctx context.Context, a, b string) (*Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fa, foundA, err := f.embed(a)
	if err != nil {
		return nil, err
	}
	defer fa.Close()

	fb, foundB, err := f.embed(b)
	if err != nil {
		return nil, err
	}
	defer fb.Close()

	match := &Match{
		Threshold:     f.cfg.EffectiveThreshold(),
		FacesDetected: [2]bool{foundA, foundB},
	}

	if f.cfg.Metric == MetricL2 {
		match.Distance = float64(f.recognizer.MatchWithParams(fa, fb, gocv.FaceRecognizerSFDisTypeNormL2))
	} else {
		sim := f.recognizer.MatchWithParams(fa, fb, gocv.FaceRecognizerSFDisTypeCosine)
		match.Distance = 1 - float64(sim)
	}
	if match.Distance < 0 {
		match.Distance = 0
	}
	return match, nil
}

// embed returns the SFace feature for the best face in the image at path.
// Must be called with f.mu held.
func (f *FaceMatcher) embed(path string) (gocv.Mat, bool, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return gocv.Mat{}, false, ErrUndecodableImage
	}

	f.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	f.detector.Detect(img, &faces)

	best := selectBest(readFaces(faces))
	if best == nil {
		if f.cfg.EnforceDetection {
			return gocv.Mat{}, false, WrapError(gocvName, ErrNoFace)
		}
		f.logger.Debug("no face found, embedding whole image", "path", path)

		whole := gocv.NewMat()
		defer whole.Close()
		gocv.Resize(img, &whole, image.Pt(sfaceInput, sfaceInput), 0, 0, gocv.InterpolationLinear)

		feature := f.recognizer.Feature(whole)
		defer feature.Close()
		return feature.Clone(), false, nil
	}

	box := faces.RowRange(best.Row, best.Row+1)
	defer box.Close()

	aligned := f.recognizer.AlignCrop(img, box)
	defer aligned.Close()

	feature := f.recognizer.Feature(aligned)
	defer feature.Close()
	return feature.Clone(), true, nil
}

// Close releases the models.
func (f *FaceMatcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detector.Close()
	f.recognizer.Close()
	return nil
}

// faceBox is one YuNet detection.
type faceBox struct {
	Row        int
	W, H       float64
	Confidence float64
}

func (d faceBox) Area() float64 {
	return d.W * d.H
}

// readFaces parses YuNet output rows: x, y, w, h, five landmark pairs, score.
func readFaces(faces gocv.Mat) []faceBox {
	boxes := make([]faceBox, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		boxes = append(boxes, faceBox{
			Row:        r,
			W:          float64(faces.GetFloatAt(r, 2)),
			H:          float64(faces.GetFloatAt(r, 3)),
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}
	return boxes
}

// selectBest picks the face to verify: confidence * 0.7 + relative area * 0.3.
func selectBest(boxes []faceBox) *faceBox {
	if len(boxes) == 0 {
		return nil
	}
	if len(boxes) == 1 {
		return &boxes[0]
	}

	maxArea := 0.0
	for _, b := range boxes {
		if b.Area() > maxArea {
			maxArea = b.Area()
		}
	}

	bestScore := -1.0
	var best *faceBox
	for i := range boxes {
		score := boxes[i].Confidence * 0.7
		if maxArea > 0 {
			score += boxes[i].Area() / maxArea * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &boxes[i]
		}
	}
	return best
}

var _ Matcher = (*FaceMatcher)(nil)

// Package config provides environment-driven configuration for the AI service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Compiled-in engine settings. These are not configurable per request.
const (
	DefaultPort        = "8000"
	DefaultOllamaURL   = "http://host.docker.internal:11434"
	ModelName          = "qwen2.5:7b"
	VoiceModelPath     = "models/es_ES-sharvard-medium.onnx"
	DefaultWhisperBin  = "whisper-cli"
	DefaultWhisperLang = "es"
	DefaultPiperBin    = "piper"
)

// STT backends.
const (
	STTWhisperCLI = "whisper-cli"
	STTOpenAI     = "openai"
)

// Service holds everything the binary needs to wire the service.
type Service struct {
	Port     string
	LogLevel string
	Debug    bool

	// Scratch root for per-request temp files. Empty means os.TempDir().
	ScratchDir string

	// Model gateway
	OllamaURL      string
	Model          string
	GatewayTimeout time.Duration

	// Startup prober
	WarmupAttempts int
	WarmupDelay    time.Duration

	// Speech-to-text
	STTBackend      string
	WhisperBin      string
	WhisperModel    string
	WhisperLanguage string
	STTURL          string
	STTAPIKey       string
	STTModel        string

	// Text-to-speech
	PiperBin   string
	VoiceModel string

	// Biometrics
	FaceDetectorModel   string
	FaceRecognizerModel string
	FaceDistanceMetric  string
	FaceEnforceDetect   bool
}

// Default returns the configuration used when no environment is set.
func Default() Service {
	return Service{
		Port:                DefaultPort,
		LogLevel:            "info",
		OllamaURL:           DefaultOllamaURL,
		Model:               ModelName,
		GatewayTimeout:      30 * time.Second,
		WarmupAttempts:      5,
		WarmupDelay:         5 * time.Second,
		STTBackend:          STTWhisperCLI,
		WhisperBin:          DefaultWhisperBin,
		WhisperModel:        "models/ggml-base.bin",
		WhisperLanguage:     DefaultWhisperLang,
		STTModel:            "whisper-1",
		PiperBin:            DefaultPiperBin,
		VoiceModel:          VoiceModelPath,
		FaceDetectorModel:   "models/face_detection_yunet_2023mar.onnx",
		FaceRecognizerModel: "models/face_recognition_sface_2021dec.onnx",
		FaceDistanceMetric:  "cosine",
	}
}

// FromEnv overlays environment variables on top of Default.
func FromEnv() (Service, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Service, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("SCRATCH_DIR", &cfg.ScratchDir)
	str("OLLAMA_URL", &cfg.OllamaURL)
	str("STT_BACKEND", &cfg.STTBackend)
	str("WHISPER_BIN", &cfg.WhisperBin)
	str("WHISPER_MODEL", &cfg.WhisperModel)
	str("WHISPER_LANGUAGE", &cfg.WhisperLanguage)
	str("STT_URL", &cfg.STTURL)
	str("STT_API_KEY", &cfg.STTAPIKey)
	str("STT_MODEL", &cfg.STTModel)
	str("PIPER_BIN", &cfg.PiperBin)
	str("FACE_DETECTOR_MODEL", &cfg.FaceDetectorModel)
	str("FACE_RECOGNIZER_MODEL", &cfg.FaceRecognizerModel)
	str("FACE_DISTANCE_METRIC", &cfg.FaceDistanceMetric)

	if v, ok := lookup("FACE_ENFORCE_DETECTION"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("config: FACE_ENFORCE_DETECTION: %w", err)
		}
		cfg.FaceEnforceDetect = b
	}
	if v, ok := lookup("WARMUP_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("config: WARMUP_ATTEMPTS: %w", err)
		}
		cfg.WarmupAttempts = n
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (s Service) Validate() error {
	switch s.STTBackend {
	case STTWhisperCLI:
	case STTOpenAI:
		if s.STTURL == "" {
			return fmt.Errorf("config: STT_URL is required for the %q backend", STTOpenAI)
		}
	default:
		return fmt.Errorf("config: unknown STT_BACKEND %q", s.STTBackend)
	}
	if s.OllamaURL == "" {
		return fmt.Errorf("config: OLLAMA_URL must not be empty")
	}
	if s.WarmupAttempts < 1 {
		return fmt.Errorf("config: WARMUP_ATTEMPTS must be at least 1")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s Service) Addr() string {
	return ":" + s.Port
}

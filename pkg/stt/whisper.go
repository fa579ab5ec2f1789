package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/teslashibe/go-aiservice/pkg/audioio"
	"github.com/teslashibe/go-aiservice/pkg/scratch"
)

const whisperName = "whisper-cli"

// WhisperCLI runs a whisper.cpp binary per transcription.
//
// The binary is executed directly with an argument vector, never through a
// shell. Ogg/Opus recordings are decoded to 16 kHz mono WAV first because
// whisper.cpp only reads PCM formats.
type WhisperCLI struct {
	config *Config
	logger *slog.Logger
}

// NewWhisperCLI creates a whisper.cpp engine.
func NewWhisperCLI(opts ...Option) (*WhisperCLI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.Binary == "" {
		return nil, ErrNoBinary
	}
	if cfg.Model == "" {
		return nil, ErrNoModel
	}

	return &WhisperCLI{
		config: cfg,
		logger: cfg.Logger.With("component", "stt.whisper"),
	}, nil
}

// TranscribeFile implements Transcriber.
func (w *WhisperCLI) TranscribeFile(ctx context.Context, path string) (*Transcript, error) {
	start := time.Now()

	space, err := scratch.New(w.config.ScratchDir, "whisper")
	if err != nil {
		return nil, WrapError(whisperName, err)
	}
	defer space.Close()

	input, err := w.prepare(space, path)
	if err != nil {
		return nil, WrapError(whisperName, err)
	}

	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	prefix := space.Path("transcript")
	args := []string{"-m", w.config.Model, "-f", input, "-otxt", "-of", prefix, "-nt"}
	if w.config.Language != "" {
		args = append(args, "-l", w.config.Language)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.config.Binary, args...)
	cmd.Dir = space.Dir()
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		w.logger.Warn("whisper failed", "error", err, "stderr", tail(stderr.String(), 512))
		return nil, WrapError(whisperName, fmt.Errorf("run %s: %w", w.config.Binary, err))
	}

	data, err := os.ReadFile(prefix + ".txt")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, WrapError(whisperName, ErrNoOutput)
		}
		return nil, WrapError(whisperName, err)
	}

	transcript := &Transcript{
		Text:      strings.TrimSpace(string(data)),
		Language:  w.config.Language,
		Engine:    whisperName,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	w.logger.Debug("transcribed",
		"chars", len(transcript.Text),
		"latency_ms", transcript.LatencyMs,
	)
	return transcript, nil
}

// prepare returns a path whisper.cpp can read, transcoding Ogg/Opus into
// the engine's own scratch space.
func (w *WhisperCLI) prepare(space *scratch.Space, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if !audioio.IsOggOpus(data) {
		return path, nil
	}

	wav, err := audioio.DecodeOggOpus(data)
	if err != nil {
		return "", err
	}
	w.logger.Debug("decoded ogg/opus upload", "bytes_in", len(data), "bytes_out", len(wav))
	return space.WriteFile("input.wav", wav)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

var _ Transcriber = (*WhisperCLI)(nil)

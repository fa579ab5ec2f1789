package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-aiservice/pkg/audioio"
	"github.com/teslashibe/go-aiservice/pkg/scratch"
)

const piperName = "piper"

// Piper synthesizes speech with the piper command-line engine.
//
// The binary is executed with an argument vector and the text is written
// to its stdin, so reply content never reaches a shell. Each call writes to
// its own scratch directory, removed before Synthesize returns.
type Piper struct {
	config *Config
	logger *slog.Logger
	closed atomic.Bool
}

// NewPiper creates a Piper provider.
func NewPiper(opts ...Option) (*Piper, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Piper{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.piper"),
	}, nil
}

// Synthesize implements Provider.
func (p *Piper) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if p.closed.Load() {
		return nil, WrapError(piperName, ErrClosed)
	}

	text = CleanText(text)
	if text == "" {
		return nil, WrapError(piperName, ErrEmptyText)
	}

	start := time.Now()

	space, err := scratch.New(p.config.ScratchDir, "piper")
	if err != nil {
		return nil, WrapError(piperName, err)
	}
	defer space.Close()

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	out := space.Path("speech.wav")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.config.Binary,
		"--model", p.config.VoiceModel,
		"--output_file", out,
	)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.logger.Warn("piper failed", "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return nil, WrapError(piperName, fmt.Errorf("run %s: %w", p.config.Binary, err))
	}

	audio, err := os.ReadFile(out)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, WrapError(piperName, ErrNoAudio)
		}
		return nil, WrapError(piperName, err)
	}
	if len(audio) == 0 {
		return nil, WrapError(piperName, ErrNoAudio)
	}

	result := &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Encoding: EncodingWAV},
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if info, err := audioio.ParseWAVHeader(audio); err == nil {
		result.Format.SampleRate = info.SampleRate
		result.Format.Channels = info.Channels
		result.Format.BitDepth = info.BitsPerSample
		if bps := info.SampleRate * info.Channels * info.BitsPerSample / 8; bps > 0 {
			result.Duration = time.Duration(info.DataSize) * time.Second / time.Duration(bps)
		}
	}

	p.logger.Debug("synthesized",
		"chars", result.CharCount,
		"bytes", len(audio),
		"latency_ms", result.LatencyMs,
	)
	return result, nil
}

// Close marks the provider closed.
func (p *Piper) Close() error {
	p.closed.Store(true)
	return nil
}

var _ Provider = (*Piper)(nil)

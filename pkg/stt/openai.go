package stt

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teslashibe/go-aiservice/internal/httpc"
)

const openaiName = "openai"

// OpenAI transcribes through an OpenAI-compatible audio endpoint.
type OpenAI struct {
	client *openai.Client
	config *Config
	logger *slog.Logger
}

// NewOpenAI creates a remote engine.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Model = openai.Whisper1
	cfg.Apply(opts...)

	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	if cfg.Model == "" {
		return nil, ErrNoModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	clientCfg.HTTPClient = httpc.NewClient(cfg.Timeout)

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: cfg.Logger.With("component", "stt.openai"),
	}, nil
}

// TranscribeFile implements Transcriber.
func (o *OpenAI) TranscribeFile(ctx context.Context, path string) (*Transcript, error) {
	start := time.Now()

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.config.Model,
		FilePath: path,
		Language: o.config.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		perr := &ProviderError{Provider: openaiName, Err: err}

		var apiErr *openai.APIError
		if !errors.As(err, &apiErr) && httpc.IsConnectivity(err) {
			perr.Unreachable = true
		}
		o.logger.Warn("transcription failed", "error", err, "unreachable", perr.Unreachable)
		return nil, perr
	}

	transcript := &Transcript{
		Text:      strings.TrimSpace(resp.Text),
		Language:  o.config.Language,
		Engine:    openaiName,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	o.logger.Debug("transcribed",
		"chars", len(transcript.Text),
		"latency_ms", transcript.LatencyMs,
	)
	return transcript, nil
}

var _ Transcriber = (*OpenAI)(nil)

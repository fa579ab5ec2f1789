package voice

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/teslashibe/go-aiservice/pkg/gateway"
	"github.com/teslashibe/go-aiservice/pkg/metrics"
	"github.com/teslashibe/go-aiservice/pkg/scratch"
	"github.com/teslashibe/go-aiservice/pkg/stt"
	"github.com/teslashibe/go-aiservice/pkg/tts"
)

// State is a position in the turn's state machine.
type State string

const (
	StateReceive    State = "RECEIVE"
	StateTranscribe State = "TRANSCRIBE"
	StateGenerate   State = "GENERATE"
	StateSynthesize State = "SYNTHESIZE"
	StateComplete   State = "COMPLETE"
	StateFailed     State = "FAILED"
)

// Upload is the recorded audio sent by the client.
type Upload struct {
	Filename string
	Audio    []byte
}

// Result is a completed turn.
type Result struct {
	// Text is the generated reply.
	Text string `json:"text"`

	// Transcript is what the engine heard.
	Transcript string `json:"transcript"`

	// Audio is the synthesized reply, base64-encoded.
	Audio string `json:"audio"`

	// Metrics for this turn.
	Metrics Metrics `json:"-"`
}

// Pipeline wires the three engines into the turn state machine.
// It holds no per-turn state and is safe for concurrent use.
type Pipeline struct {
	transcriber stt.Transcriber
	generator   gateway.Generator
	synthesizer tts.Provider

	cfg    *Config
	logger *slog.Logger
}

// New creates a pipeline.
func New(transcriber stt.Transcriber, generator gateway.Generator, synthesizer tts.Provider, opts ...Option) (*Pipeline, error) {
	if transcriber == nil || generator == nil || synthesizer == nil {
		return nil, ErrMissingStage
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Pipeline{
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		cfg:         cfg,
		logger:      cfg.Logger.With("component", "voice.pipeline"),
	}, nil
}

// Collector returns the metrics collector, or nil.
func (p *Pipeline) Collector() *MetricsCollector {
	return p.cfg.Collector
}

// Run executes one turn.
func (p *Pipeline) Run(ctx context.Context, up Upload) (*Result, error) {
	turn := &Metrics{Started: time.Now(), AudioBytesIn: len(up.Audio)}

	result, err := p.run(ctx, up, turn)

	turn.Total = time.Since(turn.Started)
	if err != nil {
		turn.State = StateFailed
		turn.FailedStage = FailedStage(err)
		metrics.VoiceRuns.WithLabelValues(string(StateFailed), string(turn.FailedStage)).Inc()
		p.logger.Warn("voice turn failed",
			"request_id", turn.RequestID,
			"stage", turn.FailedStage,
			"error", err,
		)
	} else {
		turn.State = StateComplete
		metrics.VoiceRuns.WithLabelValues(string(StateComplete), "").Inc()
		p.logger.Info("voice turn complete",
			"request_id", turn.RequestID,
			"latency", turn.FormatLatency(),
		)
	}

	if p.cfg.Collector != nil {
		p.cfg.Collector.Record(*turn)
	}
	if err != nil {
		return nil, err
	}

	result.Metrics = *turn
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, up Upload, turn *Metrics) (*Result, error) {
	var (
		space *scratch.Space
		path  string
	)
	err := p.stage(StateReceive, turn, func() error {
		if len(up.Audio) == 0 {
			return ErrEmptyUpload
		}
		var err error
		space, err = scratch.New(p.cfg.ScratchDir, "voice")
		if err != nil {
			return err
		}
		turn.RequestID = space.ID()
		path, err = space.WriteFile(uploadName(up.Filename), up.Audio)
		return err
	})
	if space != nil {
		defer space.Close()
	}
	if err != nil {
		return nil, err
	}

	var transcript *stt.Transcript
	if err := p.stage(StateTranscribe, turn, func() error {
		var err error
		transcript, err = p.transcriber.TranscribeFile(ctx, path)
		return err
	}); err != nil {
		return nil, err
	}

	var reply *gateway.ChatResponse
	if err := p.stage(StateGenerate, turn, func() error {
		var err error
		reply, err = p.generator.Generate(ctx, &gateway.ChatRequest{Message: transcript.Text})
		return err
	}); err != nil {
		return nil, err
	}

	var speech *tts.AudioResult
	if err := p.stage(StateSynthesize, turn, func() error {
		var err error
		speech, err = p.synthesizer.Synthesize(ctx, tts.CleanText(reply.Response))
		return err
	}); err != nil {
		return nil, err
	}
	turn.AudioBytesOut = len(speech.Audio)

	return &Result{
		Text:       reply.Response,
		Transcript: transcript.Text,
		Audio:      base64.StdEncoding.EncodeToString(speech.Audio),
	}, nil
}

// stage times fn, records the latency and tags a failure with st.
func (p *Pipeline) stage(st State, turn *Metrics, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)

	turn.set(st, d)
	metrics.VoiceStageLatency.WithLabelValues(string(st)).Observe(d.Seconds())

	if err != nil {
		return &StageError{Stage: st, Err: err}
	}
	p.logger.Debug("stage done", "request_id", turn.RequestID, "stage", st, "duration", d)
	return nil
}

func uploadName(filename string) string {
	if filename == "" {
		return "upload"
	}
	return "upload-" + filename
}

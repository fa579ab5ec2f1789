package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/teslashibe/go-aiservice/pkg/gateway"
	"github.com/teslashibe/go-aiservice/pkg/stt"
	"github.com/teslashibe/go-aiservice/pkg/tts"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func replyMock(text string) *gateway.Mock {
	m := gateway.NewMock("qwen2.5:7b")
	m.GenerateFunc = func(ctx context.Context, req *gateway.ChatRequest) (*gateway.ChatResponse, error) {
		return &gateway.ChatResponse{Response: text}, nil
	}
	return m
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

func TestPipelineRun(t *testing.T) {
	root := t.TempDir()
	transcriber := stt.NewMock("hola")
	generator := replyMock("respuesta")
	synthesizer := tts.NewMock([]byte("RIFF-fake-audio"))

	p, err := New(transcriber, generator, synthesizer,
		WithScratchDir(root),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	upload := []byte("OggS-recorded-voice")
	result, err := p.Run(context.Background(), Upload{Filename: "nota.ogg", Audio: upload})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Text != "respuesta" {
		t.Errorf("Expected text %q, got %q", "respuesta", result.Text)
	}
	if result.Transcript != "hola" {
		t.Errorf("Expected transcript %q, got %q", "hola", result.Transcript)
	}

	audio, err := base64.StdEncoding.DecodeString(result.Audio)
	if err != nil {
		t.Fatalf("audio is not base64: %v", err)
	}
	if string(audio) != "RIFF-fake-audio" {
		t.Errorf("Audio does not match synthesizer output: %q", audio)
	}

	reqs := generator.Requests()
	if len(reqs) != 1 || reqs[0].Message != "hola" || reqs[0].Context != "" {
		t.Errorf("Unexpected gateway requests: %+v", reqs)
	}

	inputs := transcriber.Inputs()
	if len(inputs) != 1 || !bytes.Equal(inputs[0], upload) {
		t.Error("Transcriber should see the upload verbatim")
	}

	if result.Metrics.State != StateComplete || result.Metrics.RequestID == "" {
		t.Errorf("Unexpected metrics: %+v", result.Metrics)
	}
	if result.Metrics.AudioBytesIn != len(upload) || result.Metrics.AudioBytesOut != len(audio) {
		t.Errorf("Unexpected sizes: %+v", result.Metrics)
	}

	assertEmpty(t, root)
}

func TestPipelineSpeaksCleanedReply(t *testing.T) {
	synthesizer := tts.NewMock([]byte("x"))
	p, _ := New(stt.NewMock("hola"), replyMock("**¡Hola!** Soy tu _asistente_"), synthesizer,
		WithScratchDir(t.TempDir()),
		WithLogger(quietLogger()),
	)

	result, err := p.Run(context.Background(), Upload{Filename: "a.wav", Audio: []byte("a")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Text != "**¡Hola!** Soy tu _asistente_" {
		t.Errorf("Reply text should be returned unchanged, got %q", result.Text)
	}
	calls := synthesizer.Calls()
	if len(calls) != 1 || calls[0].Text != "¡Hola! Soy tu asistente" {
		t.Errorf("Synthesizer should get cleaned text, got %+v", calls)
	}
}

func TestPipelineFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name        string
		audio       []byte
		transcriber stt.Transcriber
		generator   gateway.Generator
		synthesizer tts.Provider
		stage       State
		cause       error
	}{
		{
			name:        "empty upload",
			audio:       nil,
			transcriber: stt.NewMock("hola"),
			generator:   replyMock("respuesta"),
			synthesizer: tts.NewMock([]byte("x")),
			stage:       StateReceive,
			cause:       ErrEmptyUpload,
		},
		{
			name:        "transcription",
			audio:       []byte("a"),
			transcriber: stt.WithError(boom),
			generator:   replyMock("respuesta"),
			synthesizer: tts.NewMock([]byte("x")),
			stage:       StateTranscribe,
			cause:       boom,
		},
		{
			name:        "generation",
			audio:       []byte("a"),
			transcriber: stt.NewMock("hola"),
			generator:   gateway.WithError(&gateway.APIError{StatusCode: 500, Message: "oom", Endpoint: "/api/generate"}),
			synthesizer: tts.NewMock([]byte("x")),
			stage:       StateGenerate,
		},
		{
			name:        "synthesis",
			audio:       []byte("a"),
			transcriber: stt.NewMock("hola"),
			generator:   replyMock("respuesta"),
			synthesizer: tts.WithError(boom),
			stage:       StateSynthesize,
			cause:       boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			collector := NewMetricsCollector()
			p, err := New(tt.transcriber, tt.generator, tt.synthesizer,
				WithScratchDir(root),
				WithCollector(collector),
				WithLogger(quietLogger()),
			)
			if err != nil {
				t.Fatal(err)
			}

			result, err := p.Run(context.Background(), Upload{Filename: "a.ogg", Audio: tt.audio})
			if result != nil {
				t.Error("Failed turn must not return a partial result")
			}

			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("Expected StageError, got %T: %v", err, err)
			}
			if se.Stage != tt.stage {
				t.Errorf("Expected stage %s, got %s", tt.stage, se.Stage)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("Expected cause %v, got %v", tt.cause, err)
			}

			last := collector.Last()
			if last.State != StateFailed || last.FailedStage != tt.stage {
				t.Errorf("Unexpected recorded turn: %+v", last)
			}
			if collector.Failed() != 1 {
				t.Errorf("Expected 1 failed turn, got %d", collector.Failed())
			}

			assertEmpty(t, root)
		})
	}
}

func TestPipelineGatewayErrorUnwraps(t *testing.T) {
	p, _ := New(stt.NewMock("hola"),
		gateway.WithError(&gateway.ConnectivityError{Endpoint: "/api/generate", Err: gateway.ErrCircuitOpen}),
		tts.NewMock([]byte("x")),
		WithScratchDir(t.TempDir()),
		WithLogger(quietLogger()),
	)

	_, err := p.Run(context.Background(), Upload{Audio: []byte("a")})
	if !gateway.IsConnectivity(err) {
		t.Errorf("Gateway error should survive wrapping, got %v", err)
	}
	if FailedStage(err) != StateGenerate {
		t.Errorf("Expected GENERATE, got %s", FailedStage(err))
	}
}

func TestNewRequiresEngines(t *testing.T) {
	if _, err := New(nil, replyMock("x"), tts.NewMock(nil)); !errors.Is(err, ErrMissingStage) {
		t.Errorf("Expected ErrMissingStage, got %v", err)
	}
}

func TestMetricsCollectorAverage(t *testing.T) {
	c := NewMetricsCollector()
	c.Record(Metrics{State: StateComplete, Transcribe: 100 * time.Millisecond, Total: time.Second})
	c.Record(Metrics{State: StateComplete, Transcribe: 300 * time.Millisecond, Total: 3 * time.Second})
	c.Record(Metrics{State: StateFailed, Transcribe: time.Hour})

	avg := c.Average()
	if avg.Transcribe != 200*time.Millisecond {
		t.Errorf("Expected 200ms, got %v", avg.Transcribe)
	}
	if avg.Total != 2*time.Second {
		t.Errorf("Expected 2s, got %v", avg.Total)
	}

	updates := make(chan Metrics, 1)
	c.OnUpdate(func(m Metrics) { updates <- m })
	c.Record(Metrics{RequestID: "abc", State: StateComplete})

	select {
	case m := <-updates:
		if m.RequestID != "abc" {
			t.Errorf("Unexpected update: %+v", m)
		}
	case <-time.After(time.Second):
		t.Fatal("OnUpdate not called")
	}
}

func TestFormatLatency(t *testing.T) {
	m := Metrics{Transcribe: 1500 * time.Millisecond, Generate: 2 * time.Second}
	want := "1.5s STT | 2s LLM | ---ms TTS | ---ms TOTAL"
	if got := m.FormatLatency(); got != want {
		t.Errorf("FormatLatency() = %q, want %q", got, want)
	}
}

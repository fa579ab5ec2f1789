package tts_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-aiservice/pkg/audioio"
	"github.com/teslashibe/go-aiservice/pkg/tts"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePiper writes a shell script that records stdin and argv, then copies
// fixture to the --output_file path. exit != 0 makes it fail instead.
func fakePiper(t *testing.T, fixture []byte, fail bool) (bin, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine is a POSIX shell script")
	}

	dir = t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fixture.wav"), fixture, 0o600); err != nil {
		t.Fatal(err)
	}

	script := `#!/bin/sh
cat > "` + dir + `/stdin"
printf '%s\n' "$@" > "` + dir + `/args"
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output_file) out="$2"; shift ;;
  esac
  shift
done
`
	if fail {
		script += "echo 'voice model not found' >&2\nexit 1\n"
	} else {
		script += `cp "` + dir + `/fixture.wav" "$out"` + "\n"
	}

	bin = filepath.Join(dir, "piper")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, dir
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

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**Hola**, ¿qué _tal_?", "Hola, ¿qué tal?"},
		{"# Ofertas\n\n- `Zapatos` ~rebajados~", "Ofertas - Zapatos rebajados"},
		{"  texto   normal  ", "texto normal"},
		{"***", ""},
	}

	for _, tt := range tests {
		if got := tts.CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPiperSynthesize(t *testing.T) {
	fixture := audioio.EncodeWAV(make([]int16, 22050), 22050, 1)
	bin, dir := fakePiper(t, fixture, false)
	root := t.TempDir()

	provider, err := tts.NewPiper(
		tts.WithBinary(bin),
		tts.WithVoiceModel("models/es_ES-sharvard-medium.onnx"),
		tts.WithScratchDir(root),
		tts.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("NewPiper failed: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "**¡Hola!** Bienvenido; rm -rf / `ls`")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if !bytes.Equal(result.Audio, fixture) {
		t.Error("Expected audio to be the file the synthesizer wrote")
	}
	if result.Format.SampleRate != 22050 || result.Format.Channels != 1 {
		t.Errorf("Unexpected format: %+v", result.Format)
	}
	if result.Duration != time.Second {
		t.Errorf("Expected 1s duration, got %v", result.Duration)
	}

	stdin, _ := os.ReadFile(filepath.Join(dir, "stdin"))
	if string(stdin) != "¡Hola! Bienvenido; rm -rf / ls" {
		t.Errorf("Unexpected stdin: %q", stdin)
	}

	args, _ := os.ReadFile(filepath.Join(dir, "args"))
	lines := strings.Split(strings.TrimSpace(string(args)), "\n")
	if len(lines) != 4 || lines[0] != "--model" || lines[1] != "models/es_ES-sharvard-medium.onnx" || lines[2] != "--output_file" {
		t.Errorf("Unexpected argv: %q", lines)
	}

	assertEmpty(t, root)
}

func TestPiperFailure(t *testing.T) {
	bin, _ := fakePiper(t, nil, true)
	root := t.TempDir()

	provider, _ := tts.NewPiper(tts.WithBinary(bin), tts.WithScratchDir(root), tts.WithLogger(quietLogger()))

	_, err := provider.Synthesize(context.Background(), "Hola")
	var perr *tts.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %T: %v", err, err)
	}
	if perr.Provider != "piper" {
		t.Errorf("Unexpected provider %q", perr.Provider)
	}
	assertEmpty(t, root)
}

func TestPiperNoOutput(t *testing.T) {
	bin, _ := fakePiper(t, nil, false)
	root := t.TempDir()

	provider, _ := tts.NewPiper(tts.WithBinary(bin), tts.WithScratchDir(root), tts.WithLogger(quietLogger()))

	_, err := provider.Synthesize(context.Background(), "Hola")
	if !errors.Is(err, tts.ErrNoAudio) {
		t.Errorf("Expected ErrNoAudio, got %v", err)
	}
	assertEmpty(t, root)
}

func TestPiperEmptyText(t *testing.T) {
	provider, err := tts.NewPiper(tts.WithBinary("/nonexistent/piper"), tts.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := provider.Synthesize(context.Background(), " ** _ "); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestPiperClosed(t *testing.T) {
	provider, _ := tts.NewPiper(tts.WithLogger(quietLogger()))
	provider.Close()

	if _, err := provider.Synthesize(context.Background(), "Hola"); !errors.Is(err, tts.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []tts.Option
		want error
	}{
		{"defaults", nil, nil},
		{"no binary", []tts.Option{tts.WithBinary("")}, tts.ErrNoBinary},
		{"no voice", []tts.Option{tts.WithVoiceModel("")}, tts.ErrNoVoiceModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tts.NewPiper(tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock([]byte("wav-bytes"))

	result, err := mock.Synthesize(context.Background(), "respuesta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Audio) != "wav-bytes" {
		t.Errorf("Unexpected audio %q", result.Audio)
	}
	if mock.CallCount("Synthesize") != 1 {
		t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
	}
	if calls := mock.Calls(); calls[0].Text != "respuesta" {
		t.Errorf("Expected recorded text, got %q", calls[0].Text)
	}

	failing := tts.WithError(errors.New("boom"))
	if _, err := failing.Synthesize(context.Background(), "x"); err == nil {
		t.Error("Expected error from failing mock")
	}
}

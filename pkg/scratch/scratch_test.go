package scratch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSpaceLifecycle(t *testing.T) {
	root := t.TempDir()

	space, err := New(root, "voice")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(space.Dir()), "voice-"+space.ID()) {
		t.Errorf("unexpected dir name %s", space.Dir())
	}

	path, err := space.WriteFile("input.wav", []byte("RIFF"))
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("read back %q, %v", data, err)
	}

	if err := space.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(space.Dir()); !os.IsNotExist(err) {
		t.Errorf("space still exists after Close")
	}

	if err := space.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := space.WriteFile("late.bin", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSpacesAreUnique(t *testing.T) {
	root := t.TempDir()
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		space, err := New(root, "bio")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer space.Close()
		if seen[space.Dir()] {
			t.Fatalf("duplicate space %s", space.Dir())
		}
		seen[space.Dir()] = true
	}
}

func TestPathStaysInsideSpace(t *testing.T) {
	space, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer space.Close()

	tests := []struct {
		name string
		want string
	}{
		{"../../etc/passwd", "passwd"},
		{"my clip.ogg", "my-clip.ogg"},
		{"..", "file"},
		{"", "file"},
		{`C:\Users\me\voice.webm`, "voice.webm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := space.Path(tt.name)
			if filepath.Dir(got) != space.Dir() {
				t.Errorf("path %s escaped %s", got, space.Dir())
			}
			if filepath.Base(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, filepath.Base(got))
			}
		})
	}
}

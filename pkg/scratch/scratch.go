// Package scratch manages request-scoped temporary files.
//
// Every request that needs to hand bytes to an engine as a file opens its
// own Space, a directory named after a random UUID, and defers Close. Close
// removes the whole directory, so nothing outlives the request regardless
// of how the handler exits.
//
//	space, err := scratch.New(root, "voice")
//	if err != nil {
//	    return err
//	}
//	defer space.Close()
//
//	path, err := space.WriteFile("input.wav", audio)
package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned when a Space is used after Close.
var ErrClosed = errors.New("scratch: space closed")

// Space is a private directory owned by a single request.
type Space struct {
	id  string
	dir string

	mu     sync.Mutex
	closed bool
}

// New creates a uniquely named directory under root. An empty root means
// os.TempDir(). The prefix only makes directories easier to spot on disk.
func New(root, prefix string) (*Space, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("scratch: create root: %w", err)
	}

	id := uuid.NewString()
	name := id
	if prefix != "" {
		name = prefix + "-" + id
	}

	dir := filepath.Join(root, name)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("scratch: create space: %w", err)
	}

	return &Space{id: id, dir: dir}, nil
}

// ID returns the random identifier keying this space.
func (s *Space) ID() string { return s.id }

// Dir returns the absolute directory of the space.
func (s *Space) Dir() string { return s.dir }

// Path returns the location of name inside the space without creating it.
// Only the base name is kept, so callers cannot escape the directory.
func (s *Space) Path(name string) string {
	return filepath.Join(s.dir, sanitize(name))
}

// WriteFile stores data verbatim under name and returns its path.
func (s *Space) WriteFile(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	path := s.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("scratch: write %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// Close removes the space and everything in it. It is safe to call twice.
func (s *Space) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("scratch: remove space: %w", err)
	}
	return nil
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "-")
	if name == "." || name == "/" || name == ".." || name == "" {
		return "file"
	}
	return name
}

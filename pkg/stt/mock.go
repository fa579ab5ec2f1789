package stt

import (
	"context"
	"os"
	"sync"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when TranscribeFile is invoked.
	TranscribeFunc func(ctx context.Context, path string) (*Transcript, error)

	mu     sync.Mutex
	paths  []string
	inputs [][]byte
}

// NewMock creates a mock that always hears text.
func NewMock(text string) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, path string) (*Transcript, error) {
			return &Transcript{Text: text, Engine: "mock"}, nil
		},
	}
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, path string) (*Transcript, error) {
			return nil, WrapError("mock", err)
		},
	}
}

// TranscribeFile records the path and the file's bytes, then calls TranscribeFunc.
func (m *Mock) TranscribeFile(ctx context.Context, path string) (*Transcript, error) {
	data, _ := os.ReadFile(path)

	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.inputs = append(m.inputs, data)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, path)
	}
	return &Transcript{Engine: "mock"}, nil
}

// Paths returns every path passed to TranscribeFile.
func (m *Mock) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// Inputs returns the file contents seen at each call.
func (m *Mock) Inputs() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.inputs...)
}

var _ Transcriber = (*Mock)(nil)

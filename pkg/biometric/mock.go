package biometric

import (
	"bytes"
	"context"
	"os"
	"sync"
)

// Mock is a Matcher that treats byte-identical files as the same face.
type Mock struct {
	// MatchFunc overrides the byte comparison when set.
	MatchFunc func(ctx context.Context, a, b string) (*Match, error)

	mu    sync.Mutex
	pairs [][2]string
}

// NewMock creates a byte-identity matcher.
func NewMock() *Mock {
	return &Mock{}
}

// Match implements Matcher.
func (m *Mock) Match(ctx context.Context, a, b string) (*Match, error) {
	m.mu.Lock()
	m.pairs = append(m.pairs, [2]string{a, b})
	m.mu.Unlock()

	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, a, b)
	}

	da, err := os.ReadFile(a)
	if err != nil {
		return nil, WrapError("mock", err)
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return nil, WrapError("mock", err)
	}

	match := &Match{Distance: 1, Threshold: CosineThreshold, FacesDetected: [2]bool{true, true}}
	if bytes.Equal(da, db) {
		match.Distance = 0
	}
	return match, nil
}

// Pairs returns the file pairs compared so far.
func (m *Mock) Pairs() [][2]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]string(nil), m.pairs...)
}

// Close implements Matcher.
func (m *Mock) Close() error { return nil }

var _ Matcher = (*Mock)(nil)

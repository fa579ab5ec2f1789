package gateway

import (
	"context"
	"sync"
	"time"
)

// Mock implements Generator and Registry for testing.
type Mock struct {
	// GenerateFunc is called when Generate is invoked.
	GenerateFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ListModelsFunc is called when ListModels is invoked.
	ListModelsFunc func(ctx context.Context) ([]Model, error)

	// PullFunc is called when Pull is invoked.
	PullFunc func(ctx context.Context, name string, fn func(PullProgress)) error

	mu       sync.Mutex
	calls    []MockCall
	requests []ChatRequest
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock that echoes a fixed reply and reports model as
// already present.
func NewMock(model string) *Mock {
	return &Mock{
		GenerateFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{Response: "Mock response", Model: model}, nil
		},
		ListModelsFunc: func(ctx context.Context) ([]Model, error) {
			return []Model{{Name: model}}, nil
		},
		PullFunc: func(ctx context.Context, name string, fn func(PullProgress)) error {
			if fn != nil {
				fn(PullProgress{Status: "success"})
			}
			return nil
		},
	}
}

// Generate calls GenerateFunc and records the call.
func (m *Mock) Generate(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.record("Generate")
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &ChatResponse{Response: FallbackResponse, Fallback: true}, nil
}

// ListModels calls ListModelsFunc and records the call.
func (m *Mock) ListModels(ctx context.Context) ([]Model, error) {
	m.record("ListModels")
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, nil
}

// Pull calls PullFunc and records the call.
func (m *Mock) Pull(ctx context.Context, name string, fn func(PullProgress)) error {
	m.record("Pull")
	if m.PullFunc != nil {
		return m.PullFunc(ctx, name, fn)
	}
	return nil
}

func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Requests returns the chat requests passed to Generate.
func (m *Mock) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ChatRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// WithError returns a mock whose every method fails with err.
func WithError(err error) *Mock {
	return &Mock{
		GenerateFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, err
		},
		ListModelsFunc: func(ctx context.Context) ([]Model, error) {
			return nil, err
		},
		PullFunc: func(ctx context.Context, name string, fn func(PullProgress)) error {
			return err
		},
	}
}

var (
	_ Generator = (*Mock)(nil)
	_ Registry  = (*Mock)(nil)
)

// Package gateway talks to the language-model server that generates chat
// replies.
//
// The server is Ollama-compatible: replies come from POST /api/generate with
// streaming disabled, the model registry is GET /api/tags and model downloads
// go through POST /api/pull. Every generation request is prefixed with the
// store-assistant persona, so callers only supply the user's message and an
// optional context string.
//
// Example usage:
//
//	client, _ := gateway.NewClient(
//	    gateway.WithBaseURL(os.Getenv("OLLAMA_URL")),
//	    gateway.WithModel("qwen2.5:7b"),
//	)
//	defer client.Close()
//
//	resp, err := client.Generate(ctx, &gateway.ChatRequest{Message: "Hola"})
package gateway

import (
	"context"
	"strings"
	"time"
)

// Generator produces a chat reply for a single message.
type Generator interface {
	Generate(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// Registry lists and downloads models on the gateway.
type Registry interface {
	// ListModels returns the models the gateway has available locally.
	ListModels(ctx context.Context) ([]Model, error)

	// Pull downloads a model, calling fn for every progress chunk.
	// It returns once the gateway reports success or the stream fails.
	Pull(ctx context.Context, name string, fn func(PullProgress)) error
}

// ChatRequest is a single stateless chat turn.
type ChatRequest struct {
	// Message is what the user said.
	Message string `json:"message"`

	// Context is optional extra information placed before the message.
	Context string `json:"context"`
}

// ChatResponse is the generated reply.
type ChatResponse struct {
	// Response is the completion text, or FallbackResponse when the
	// gateway answered without one.
	Response string `json:"response"`

	// Fallback is true when Response is the canned apology.
	Fallback bool `json:"-"`

	// Model used for generation.
	Model string `json:"-"`

	// LatencyMs is the round-trip time in milliseconds.
	LatencyMs int64 `json:"-"`
}

// Model is an entry of the gateway's model registry.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

// PullProgress is one NDJSON chunk of a model download.
type PullProgress struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Done reports whether this chunk marks a finished download.
func (p PullProgress) Done() bool {
	return p.Status == "success"
}

// HasModel reports whether name is among models. A name without a tag
// matches the ":latest" tag, as Ollama does.
func HasModel(models []Model, name string) bool {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return false
	}
	if !strings.Contains(want, ":") {
		want += ":latest"
	}
	for _, m := range models {
		got := strings.ToLower(m.Name)
		if !strings.Contains(got, ":") {
			got += ":latest"
		}
		if got == want {
			return true
		}
	}
	return false
}

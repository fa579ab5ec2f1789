package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/teslashibe/go-aiservice/internal/httpc"
	"github.com/teslashibe/go-aiservice/pkg/metrics"
)

const (
	pathGenerate = "/api/generate"
	pathTags     = "/api/tags"
	pathPull     = "/api/pull"
)

// Client is the HTTP client for an Ollama-compatible gateway.
type Client struct {
	baseURL string
	config  *Config
	http    *http.Client
	pull    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a new gateway client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		http:    hc,
		pull:    httpc.NewClient(cfg.PullTimeout),
		logger:  cfg.Logger.With("component", "gateway.client"),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gateway",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.BreakerFailures > 0 && counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return !tripsBreaker(err)
		},
	})

	return c, nil
}

// Model returns the generation model name.
func (c *Client) Model() string {
	return c.config.Model
}

// Generate sends the persona-prefixed prompt and returns the completion.
func (c *Client) Generate(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	payload := generateRequest{
		Model:  c.config.Model,
		Prompt: BuildPrompt(c.config.Persona, req.Context, req.Message),
		Stream: false,
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, payload)
	})
	elapsed := time.Since(start)
	metrics.GatewayLatency.Observe(elapsed.Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &ConnectivityError{Endpoint: c.baseURL + pathGenerate, Err: ErrCircuitOpen}
		}
		metrics.GatewayRequests.WithLabelValues(pathGenerate, outcome(err)).Inc()
		return nil, err
	}

	result := out.(*generateResponse)
	resp := &ChatResponse{
		Model:     c.config.Model,
		LatencyMs: elapsed.Milliseconds(),
	}
	if result.Model != "" {
		resp.Model = result.Model
	}

	if result.Response == nil {
		c.logger.Warn("reply has no completion, using fallback", "model", resp.Model)
		resp.Response = FallbackResponse
		resp.Fallback = true
		metrics.GatewayRequests.WithLabelValues(pathGenerate, "fallback").Inc()
		return resp, nil
	}

	resp.Response = *result.Response
	metrics.GatewayRequests.WithLabelValues(pathGenerate, "ok").Inc()
	c.logger.Debug("generated reply",
		"model", resp.Model,
		"latency_ms", resp.LatencyMs,
		"chars", len(resp.Response),
	)
	return resp, nil
}

func (c *Client) generate(ctx context.Context, payload generateRequest) (*generateResponse, error) {
	resp, err := c.post(ctx, pathGenerate, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, parseError(resp, pathGenerate)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decode response: %v", err),
			Endpoint:   pathGenerate,
		}
	}
	return &result, nil
}

// ListModels returns the models available on the gateway.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	url := c.baseURL + pathTags
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(pathTags, "unreachable").Inc()
		return nil, &ConnectivityError{Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		metrics.GatewayRequests.WithLabelValues(pathTags, "error").Inc()
		return nil, parseError(resp, pathTags)
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("gateway: decode %s: %w", pathTags, err)
	}
	metrics.GatewayRequests.WithLabelValues(pathTags, "ok").Inc()
	return result.Models, nil
}

// Pull downloads a model and streams every progress chunk to fn.
func (c *Client) Pull(ctx context.Context, name string, fn func(PullProgress)) error {
	body, err := json.Marshal(pullRequest{Model: name, Name: name, Stream: true})
	if err != nil {
		return fmt.Errorf("gateway: marshal pull request: %w", err)
	}

	url := c.baseURL + pathPull
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.pull.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(pathPull, "unreachable").Inc()
		return &ConnectivityError{Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		metrics.GatewayRequests.WithLabelValues(pathPull, "error").Inc()
		return parseError(resp, pathPull)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var progress PullProgress
		if err := json.Unmarshal(line, &progress); err != nil {
			c.logger.Debug("skipping malformed pull chunk", "error", err)
			continue
		}
		if progress.Error != "" {
			metrics.GatewayRequests.WithLabelValues(pathPull, "error").Inc()
			return &APIError{StatusCode: resp.StatusCode, Message: progress.Error, Endpoint: pathPull}
		}
		if fn != nil {
			fn(progress)
		}
		if progress.Done() {
			metrics.GatewayRequests.WithLabelValues(pathPull, "ok").Inc()
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return &ConnectivityError{Endpoint: url, Err: err}
	}
	return ErrPullIncomplete
}

// Health checks that the gateway answers its registry endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	c.pull.CloseIdleConnections()
	return nil
}

// post makes a POST request with retries on retryable failures.
func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal payload: %w", err)
	}

	url := c.baseURL + path
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gateway: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			lastErr = &ConnectivityError{Endpoint: url, Err: err}
			c.logger.Warn("gateway unreachable",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = parseError(resp, path)
			resp.Body.Close()
			c.logger.Warn("gateway returned retryable status",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads an Ollama error body ({"error": "..."}) or falls back
// to the raw text.
func parseError(resp *http.Response, endpoint string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var errResp struct {
		Error string `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Endpoint:   endpoint,
	}
}

func success(code int) bool {
	return code >= 200 && code < 300
}

// tripsBreaker decides which failures count against the circuit.
// Client errors (4xx) and caller cancellation say nothing about gateway health.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError()
	}
	return true
}

func outcome(err error) string {
	switch {
	case IsConnectivity(err):
		return "unreachable"
	case IsAPIError(err):
		return "error"
	default:
		return "failed"
	}
}

// API payloads
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

type pullRequest struct {
	Model  string `json:"model"`
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// Verify Client implements the gateway interfaces at compile time.
var (
	_ Generator = (*Client)(nil)
	_ Registry  = (*Client)(nil)
)

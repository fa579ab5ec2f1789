// Package warmup makes sure the generation model is present on the gateway
// before the first chat request needs it.
//
// The prober runs in the background: it lists the gateway's models, pulls the
// configured one when it is missing and records the outcome as a readiness
// state. Failures are retried a bounded number of times, logged and then
// swallowed; the service keeps serving either way.
package warmup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-aiservice/pkg/gateway"
	"github.com/teslashibe/go-aiservice/pkg/metrics"
)

// Phase is the prober's lifecycle position.
type Phase string

const (
	PhasePending Phase = "pending"
	PhaseProbing Phase = "probing"
	PhasePulling Phase = "pulling"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// ErrNoModel is returned when the prober has no model to look for.
var ErrNoModel = errors.New("warmup: model required")

// State is a snapshot of the warm-up progress.
type State struct {
	Phase     Phase     `json:"status"`
	Model     string    `json:"model"`
	Attempts  int       `json:"attempts"`
	Pulled    bool      `json:"pulled"`
	Progress  string    `json:"progress,omitempty"`
	LastError string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ready reports whether the model was confirmed on the gateway.
func (s State) Ready() bool {
	return s.Phase == PhaseReady
}

// Config holds prober settings.
type Config struct {
	Model       string
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *slog.Logger
}

// Option is a functional option for configuring the prober.
type Option func(*Config)

// WithModel sets the model that must be present.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithAttempts bounds the number of probe attempts. Delay grows linearly
// with the attempt number.
func WithAttempts(n int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxAttempts = n
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the prober defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:       "qwen2.5:7b",
		MaxAttempts: 5,
		RetryDelay:  2 * time.Second,
		Logger:      slog.Default(),
	}
}

// Prober checks for, and if needed downloads, the generation model.
type Prober struct {
	registry gateway.Registry
	cfg      *Config
	logger   *slog.Logger

	mu    sync.RWMutex
	state State

	once sync.Once
	done chan struct{}
}

// New creates a prober for the given registry.
func New(registry gateway.Registry, opts ...Option) *Prober {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Prober{
		registry: registry,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "warmup.prober"),
		state: State{
			Phase:     PhasePending,
			Model:     cfg.Model,
			UpdatedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
}

// Start launches the probe in a background goroutine and returns at once.
// Calling Start more than once has no effect.
func (p *Prober) Start(ctx context.Context) {
	p.once.Do(func() {
		go func() {
			defer close(p.done)
			if err := p.run(ctx); err != nil {
				p.logger.Error("model warm-up gave up, chat requests may fail",
					"model", p.cfg.Model,
					"error", err,
				)
			}
		}()
	})
}

// Done is closed once the probe reaches a terminal phase.
func (p *Prober) Done() <-chan struct{} {
	return p.done
}

// State returns a snapshot of the current state.
func (p *Prober) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Ready reports whether the model is confirmed present.
func (p *Prober) Ready() bool {
	return p.State().Ready()
}

func (p *Prober) run(ctx context.Context) error {
	if p.cfg.Model == "" {
		p.fail(ErrNoModel)
		return ErrNoModel
	}

	var err error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		p.update(func(s *State) {
			s.Phase = PhaseProbing
			s.Attempts = attempt
		})

		if err = p.ensure(ctx); err == nil {
			p.update(func(s *State) {
				s.Phase = PhaseReady
				s.LastError = ""
			})
			metrics.WarmupReady.Set(1)
			p.logger.Info("model ready", "model", p.cfg.Model, "attempts", attempt)
			return nil
		}

		p.update(func(s *State) { s.LastError = err.Error() })

		if attempt == p.cfg.MaxAttempts {
			break
		}

		delay := p.cfg.RetryDelay * time.Duration(attempt)
		p.logger.Warn("model warm-up failed, retrying",
			"model", p.cfg.Model,
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			p.fail(ctx.Err())
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	p.fail(err)
	return err
}

// ensure lists the registry and pulls the model when it is missing.
func (p *Prober) ensure(ctx context.Context) error {
	models, err := p.registry.ListModels(ctx)
	if err != nil {
		return err
	}
	if gateway.HasModel(models, p.cfg.Model) {
		p.logger.Info("model already present", "model", p.cfg.Model)
		return nil
	}

	p.logger.Info("model missing, pulling", "model", p.cfg.Model)
	p.update(func(s *State) { s.Phase = PhasePulling })

	err = p.registry.Pull(ctx, p.cfg.Model, func(pr gateway.PullProgress) {
		attrs := []any{"model", p.cfg.Model, "status", pr.Status}
		if pr.Total > 0 {
			attrs = append(attrs, "completed", pr.Completed, "total", pr.Total)
		}
		p.logger.Info("pull progress", attrs...)
		p.update(func(s *State) { s.Progress = pr.Status })
	})
	if err != nil {
		return err
	}

	p.update(func(s *State) { s.Pulled = true })
	return nil
}

func (p *Prober) fail(err error) {
	p.update(func(s *State) {
		s.Phase = PhaseFailed
		s.LastError = err.Error()
	})
	metrics.WarmupReady.Set(0)
}

func (p *Prober) update(fn func(*State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
	p.state.UpdatedAt = time.Now()
}

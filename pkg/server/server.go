// Package server exposes the AI engines over HTTP.
package server

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/teslashibe/go-aiservice/pkg/biometric"
	"github.com/teslashibe/go-aiservice/pkg/gateway"
	"github.com/teslashibe/go-aiservice/pkg/metrics"
	"github.com/teslashibe/go-aiservice/pkg/voice"
	"github.com/teslashibe/go-aiservice/pkg/warmup"
)

// Generator produces chat replies.
type Generator interface {
	Generate(ctx context.Context, req *gateway.ChatRequest) (*gateway.ChatResponse, error)
}

// VoiceRunner runs one voice turn.
type VoiceRunner interface {
	Run(ctx context.Context, up voice.Upload) (*voice.Result, error)
}

// FaceVerifier compares two base64 face images.
type FaceVerifier interface {
	Verify(ctx context.Context, req biometric.Request) (*biometric.Result, error)
}

// Readiness reports the model warm-up state.
type Readiness interface {
	State() warmup.State
}

// Config holds the server's collaborators and settings.
type Config struct {
	Generator Generator
	Voice     VoiceRunner
	Faces     FaceVerifier
	Readiness Readiness

	// BodyLimit caps request bodies. Base64 images and recordings are large.
	BodyLimit int

	// Debug enables per-request access logs.
	Debug bool

	Logger *slog.Logger
}

// Option is a functional option for configuring the server.
type Option func(*Config)

// WithGenerator sets the chat backend.
func WithGenerator(g Generator) Option {
	return func(c *Config) { c.Generator = g }
}

// WithVoice sets the voice pipeline.
func WithVoice(v VoiceRunner) Option {
	return func(c *Config) { c.Voice = v }
}

// WithFaces sets the face verifier.
func WithFaces(f FaceVerifier) Option {
	return func(c *Config) { c.Faces = f }
}

// WithReadiness sets the warm-up state source.
func WithReadiness(r Readiness) Option {
	return func(c *Config) { c.Readiness = r }
}

// WithBodyLimit sets the maximum request body size in bytes.
func WithBodyLimit(n int) Option {
	return func(c *Config) { c.BodyLimit = n }
}

// WithDebug enables access logging.
func WithDebug(debug bool) Option {
	return func(c *Config) { c.Debug = debug }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the server defaults.
func DefaultConfig() *Config {
	return &Config{
		BodyLimit: 32 * 1024 * 1024,
		Logger:    slog.Default(),
	}
}

// Server is the HTTP front of the service.
type Server struct {
	app    *fiber.App
	cfg    *Config
	logger *slog.Logger
}

// New creates the server and registers every route. Routes whose backend is
// not configured answer 503.
func New(opts ...Option) *Server {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "aiservice",
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	if cfg.Debug {
		app.Use(logger.New())
	}
	app.Use(s.countRequests)

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)
	app.Get("/health/ready", s.handleReady)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	chat := app.Group("/chat")
	chat.Post("/generate", s.handleGenerate)
	chat.Post("/voice", s.handleVoice)

	app.Post("/biometrics/verify", s.handleVerify)

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// countRequests records every response by route and status.
func (s *Server) countRequests(c *fiber.Ctx) error {
	err := c.Next()
	if err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			return herr
		}
	}

	route := c.Route().Path
	if route == "" || route == "/" && c.Path() != "/" {
		route = "unmatched"
	}
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Response().StatusCode())).Inc()
	return nil
}

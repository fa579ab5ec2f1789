// aiservice: HTTP front for the chat, voice and face-verification engines.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-aiservice/internal/config"
	"github.com/teslashibe/go-aiservice/internal/log"
	"github.com/teslashibe/go-aiservice/pkg/biometric"
	"github.com/teslashibe/go-aiservice/pkg/gateway"
	"github.com/teslashibe/go-aiservice/pkg/server"
	"github.com/teslashibe/go-aiservice/pkg/stt"
	"github.com/teslashibe/go-aiservice/pkg/tts"
	"github.com/teslashibe/go-aiservice/pkg/voice"
	"github.com/teslashibe/go-aiservice/pkg/warmup"
)

var (
	port     = flag.String("port", "", "HTTP server port (overrides PORT)")
	debug    = flag.Bool("debug", false, "Enable request logging")
	logLevel = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Init("info")
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.Debug = *debug

	log.Init(cfg.LogLevel)
	logger := log.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := gateway.NewClient(
		gateway.WithBaseURL(cfg.OllamaURL),
		gateway.WithModel(cfg.Model),
		gateway.WithTimeout(cfg.GatewayTimeout),
		gateway.WithLogger(logger),
	)
	if err != nil {
		log.Error("gateway client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	prober := warmup.New(client,
		warmup.WithModel(cfg.Model),
		warmup.WithAttempts(cfg.WarmupAttempts, cfg.WarmupDelay),
		warmup.WithLogger(logger),
	)
	prober.Start(ctx)

	opts := []server.Option{
		server.WithGenerator(client),
		server.WithReadiness(prober),
		server.WithDebug(cfg.Debug),
		server.WithLogger(logger),
	}

	if pipeline, err := newVoicePipeline(cfg, client); err != nil {
		log.Warn("voice pipeline disabled", "error", err)
	} else {
		opts = append(opts, server.WithVoice(pipeline))
	}

	if verifier, err := newVerifier(cfg); err != nil {
		log.Warn("face verification disabled", "error", err)
	} else {
		defer verifier.Close()
		opts = append(opts, server.WithFaces(verifier))
	}

	srv := server.New(opts...)

	go func() {
		log.Info("AI service starting",
			"addr", cfg.Addr(),
			"gateway", cfg.OllamaURL,
			"model", cfg.Model,
			"stt", cfg.STTBackend,
		)
		if err := srv.Listen(cfg.Addr()); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

func newTranscriber(cfg config.Service) (stt.Transcriber, error) {
	opts := []stt.Option{
		stt.WithScratchDir(cfg.ScratchDir),
		stt.WithLogger(log.L()),
	}

	switch cfg.STTBackend {
	case config.STTOpenAI:
		return stt.NewOpenAI(append(opts,
			stt.WithBaseURL(cfg.STTURL),
			stt.WithAPIKey(cfg.STTAPIKey),
			stt.WithModel(cfg.STTModel),
			stt.WithLanguage(cfg.WhisperLanguage),
		)...)
	default:
		return stt.NewWhisperCLI(append(opts,
			stt.WithBinary(cfg.WhisperBin),
			stt.WithModel(cfg.WhisperModel),
			stt.WithLanguage(cfg.WhisperLanguage),
		)...)
	}
}

func newVoicePipeline(cfg config.Service, generator gateway.Generator) (*voice.Pipeline, error) {
	transcriber, err := newTranscriber(cfg)
	if err != nil {
		return nil, err
	}

	synthesizer, err := tts.NewPiper(
		tts.WithBinary(cfg.PiperBin),
		tts.WithVoiceModel(cfg.VoiceModel),
		tts.WithScratchDir(cfg.ScratchDir),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		return nil, err
	}

	pipeline, err := voice.New(transcriber, generator, synthesizer,
		voice.WithScratchDir(cfg.ScratchDir),
		voice.WithLogger(log.L()),
	)
	if err != nil {
		return nil, err
	}

	pipeline.Collector().OnUpdate(func(m voice.Metrics) {
		log.Debug("voice turn", "state", m.State, "latency", m.FormatLatency())
	})
	return pipeline, nil
}

func newVerifier(cfg config.Service) (*biometric.Verifier, error) {
	opts := []biometric.Option{
		biometric.WithModels(cfg.FaceDetectorModel, cfg.FaceRecognizerModel),
		biometric.WithMetric(cfg.FaceDistanceMetric),
		biometric.WithEnforceDetection(cfg.FaceEnforceDetect),
		biometric.WithScratchDir(cfg.ScratchDir),
		biometric.WithLogger(log.L()),
	}

	matcher, err := biometric.NewFaceMatcher(opts...)
	if err != nil {
		return nil, err
	}
	verifier, err := biometric.NewVerifier(matcher, opts...)
	if err != nil {
		matcher.Close()
		return nil, err
	}
	return verifier, nil
}

package server

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-aiservice/pkg/biometric"
	"github.com/teslashibe/go-aiservice/pkg/gateway"
	"github.com/teslashibe/go-aiservice/pkg/voice"
	"github.com/teslashibe/go-aiservice/pkg/warmup"
)

// uploadFields are the multipart fields accepted for voice recordings.
var uploadFields = []string{"file", "audio"}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "AI Service is running"})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "OK"})
}

// handleReady reports the warm-up state; 503 until the model is present.
func (s *Server) handleReady(c *fiber.Ctx) error {
	if s.cfg.Readiness == nil {
		return c.JSON(warmup.State{Phase: warmup.PhaseReady})
	}

	state := s.cfg.Readiness.State()
	if !state.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(state)
	}
	return c.JSON(state)
}

// GenerateRequest is the body of POST /chat/generate.
type GenerateRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

func (s *Server) handleGenerate(c *fiber.Ctx) error {
	if s.cfg.Generator == nil {
		return errNotConfigured
	}

	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalid("invalid request body: " + err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return invalid("message is required")
	}

	resp, err := s.cfg.Generator.Generate(c.UserContext(), &gateway.ChatRequest{
		Message: req.Message,
		Context: req.Context,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"response": resp.Response})
}

func (s *Server) handleVoice(c *fiber.Ctx) error {
	if s.cfg.Voice == nil {
		return errNotConfigured
	}

	up, err := readUpload(c)
	if err != nil {
		return err
	}

	result, err := s.cfg.Voice.Run(c.UserContext(), up)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// readUpload returns the first recording found under uploadFields.
func readUpload(c *fiber.Ctx) (voice.Upload, error) {
	for _, field := range uploadFields {
		fh, err := c.FormFile(field)
		if err != nil {
			continue
		}

		f, err := fh.Open()
		if err != nil {
			return voice.Upload{}, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return voice.Upload{}, err
		}
		return voice.Upload{Filename: fh.Filename, Audio: data}, nil
	}
	return voice.Upload{}, invalid("audio file is required (multipart field \"file\")")
}

// VerifyErrorBody is the failure shape of POST /biometrics/verify.
type VerifyErrorBody struct {
	Verified bool   `json:"verified"`
	Error    string `json:"error"`
	Code     string `json:"code"`
}

func (s *Server) handleVerify(c *fiber.Ctx) error {
	if s.cfg.Faces == nil {
		return s.verifyFailed(c, errNotConfigured)
	}

	var req biometric.Request
	if err := c.BodyParser(&req); err != nil {
		return s.verifyFailed(c, invalid("invalid request body: "+err.Error()))
	}

	result, err := s.cfg.Faces.Verify(c.UserContext(), req)
	if err != nil {
		return s.verifyFailed(c, err)
	}
	return c.JSON(result)
}

func (s *Server) verifyFailed(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	s.log(c, status, code, err)
	return c.Status(status).JSON(VerifyErrorBody{
		Verified: false,
		Error:    err.Error(),
		Code:     code,
	})
}

package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-aiservice/pkg/biometric"
	"github.com/teslashibe/go-aiservice/pkg/gateway"
	"github.com/teslashibe/go-aiservice/pkg/stt"
	"github.com/teslashibe/go-aiservice/pkg/tts"
	"github.com/teslashibe/go-aiservice/pkg/voice"
)

// Error codes carried in every failure body.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeGatewayError       = "gateway_error"
	CodeGatewayUnavailable = "gateway_unavailable"
	CodeProcessingError    = "processing_error"
	CodeUnavailable        = "unavailable"
	CodeInternalError      = "internal_error"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// requestError marks a problem with the caller's input.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func invalid(msg string) error {
	return &requestError{msg: msg}
}

// errNotConfigured is returned by routes whose backend was not wired.
var errNotConfigured = errors.New("service not configured")

// classify maps an error to an HTTP status and error code.
func classify(err error) (int, string) {
	var (
		reqErr   *requestError
		valErr   *biometric.ValidationError
		apiErr   *gateway.APIError
		sttErr   *stt.ProviderError
		ttsErr   *tts.ProviderError
		faceErr  *biometric.ProviderError
		fiberErr *fiber.Error
	)

	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &valErr),
		errors.Is(err, voice.ErrEmptyUpload):
		return fiber.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, errNotConfigured):
		return fiber.StatusServiceUnavailable, CodeUnavailable
	case errors.As(err, &apiErr):
		return fiber.StatusBadGateway, CodeGatewayError
	case gateway.IsConnectivity(err):
		return fiber.StatusServiceUnavailable, CodeGatewayUnavailable
	case errors.As(err, &sttErr):
		if sttErr.Unreachable {
			return fiber.StatusServiceUnavailable, CodeGatewayUnavailable
		}
		return fiber.StatusInternalServerError, CodeProcessingError
	case errors.As(err, &ttsErr), errors.As(err, &faceErr), errors.Is(err, tts.ErrEmptyText):
		return fiber.StatusInternalServerError, CodeProcessingError
	case errors.As(err, &fiberErr):
		if fiberErr.Code < fiber.StatusInternalServerError {
			return fiberErr.Code, CodeInvalidRequest
		}
		return fiberErr.Code, CodeInternalError
	default:
		return fiber.StatusInternalServerError, CodeInternalError
	}
}

// handleError is the app-wide error handler. Handlers return errors and
// this renders them as ErrorBody.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	s.log(c, status, code, err)
	return c.Status(status).JSON(ErrorBody{Error: err.Error(), Code: code})
}

func (s *Server) log(c *fiber.Ctx, status int, code string, err error) {
	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"code", code,
		"error", err,
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		attrs = append(attrs, "request_id", rid)
	}
	if stage := voice.FailedStage(err); stage != "" {
		attrs = append(attrs, "stage", stage)
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}
}

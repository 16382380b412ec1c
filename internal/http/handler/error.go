package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"printdesk/internal/http/middleware"
	"printdesk/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// serviceErrors maps service sentinels to status and code. Messages of client errors
// are built by the services from request data only, so they are safe to return.
var serviceErrors = []struct {
	err    error
	status int
	code   string
	expose bool
}{
	{service.ErrValidation, fiber.StatusBadRequest, "VALIDATION_ERROR", true},
	{service.ErrQuotaExceeded, fiber.StatusRequestEntityTooLarge, "QUOTA_EXCEEDED", true},
	{service.ErrConversion, fiber.StatusUnprocessableEntity, "CONVERSION_FAILED", false},
	{service.ErrMissingArtifact, fiber.StatusConflict, "MISSING_ARTIFACT", true},
	{service.ErrOwnership, fiber.StatusForbidden, "FORBIDDEN", false},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", false},
	{service.ErrInvalidState, fiber.StatusConflict, "INVALID_STATE", true},
	{service.ErrPrinter, fiber.StatusBadGateway, "PRINTER_ERROR", false},
}

// writeServiceError translates a service error into the error envelope.
func writeServiceError(c *fiber.Ctx, err error) error {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			msg := m.err.Error()
			if m.expose {
				msg = err.Error()
			}
			return writeError(c, m.status, m.code, msg)
		}
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// Unauthorized is the failure handler for middleware.Auth.
func Unauthorized(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid bearer token")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

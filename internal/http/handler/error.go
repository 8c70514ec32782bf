package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"sikap/internal/apperror"
	"sikap/internal/http/middleware"
	"sikap/internal/upload"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Error     string `json:"error"`
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
// - code: machine-readable short error code (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		Success:   false,
		RequestID: requestIDFromCtx(c),
		Code:      code,
		Error:     message,
	}
	return c.Status(status).JSON(res)
}

// writeAppError translates a service error 1:1 into the response. Errors
// that are not *apperror.Error become the generic internal error.
func writeAppError(c *fiber.Ctx, err error) error {
	e := apperror.FromError(err)
	return writeError(c, e.Status, e.Code, e.Message)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Bodies rejected by the server's BodyLimit are reported like any other oversized file.
func ErrorHandler(logger *zap.Logger, maxFileSize int64) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return writeAppError(c, appErr)
		}

		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fiber.StatusBadRequest, apperror.ErrValidation.Code, upload.SizeLimitMessage(maxFileSize))
		default:
			logger.Error("unhandled request error",
				zap.String("request_id", requestIDFromCtx(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return writeError(c, status, apperror.ErrInternal.Code, "internal server error")
		}
	}
}

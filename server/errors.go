package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/stophobia/restai"
	"github.com/stophobia/restai/core"
)

// apiError is the JSON error body for every failed request.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e apiError) Error() string {
	return e.Message
}

// validationError reports per-field validation failures with a 422.
type validationError struct {
	Code   int               `json:"code"`
	Fields map[string]string `json:"errors"`
}

func (e validationError) Error() string {
	return "validation failed"
}

func newValidationError(fields map[string]string) validationError {
	return validationError{
		Code:   fiber.StatusUnprocessableEntity,
		Fields: fields,
	}
}

// statusFor maps domain sentinels to HTTP statuses. Anything unrecognized is
// a 500 with a generic message so internals never leak to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, core.ErrAlreadyExists),
		errors.Is(err, core.ErrAlreadyIngested):
		return fiber.StatusConflict
	case errors.Is(err, core.ErrUnknownProvider),
		errors.Is(err, core.ErrUnsupportedSource),
		errors.Is(err, core.ErrInvalidProject),
		errors.Is(err, core.ErrLoadFailed):
		return fiber.StatusBadRequest
	case errors.Is(err, restai.ErrSandboxed):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func newErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var valErr validationError
		if errors.As(err, &valErr) {
			return c.Status(valErr.Code).JSON(valErr)
		}

		var apiErr apiError
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.Code).JSON(apiErr)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(apiError{
				Code:    fiberErr.Code,
				Message: fiberErr.Message,
			})
		}

		code := statusFor(err)
		body := apiError{Code: code, Message: err.Error()}
		if code == fiber.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "err", err)
			body.Message = "internal server error"
		} else {
			logger.Info("request rejected", "path", c.Path(), "status", code, "err", err)
		}
		return c.Status(code).JSON(body)
	}
}

func errBadRequest(msg string) apiError {
	return apiError{Code: fiber.StatusBadRequest, Message: msg}
}

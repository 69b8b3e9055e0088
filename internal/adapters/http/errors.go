package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/orbital/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, unprocessable, bad_gateway, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errMethodNotAllowed returns a 405 error.
func errMethodNotAllowed(c *fiber.Ctx) error {
	return newError(c, fiber.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnprocessableEntity, "unprocessable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "bad_gateway", msg)
}

// errGatewayTimeout returns a 504 error.
func errGatewayTimeout(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusGatewayTimeout, "gateway_timeout", msg)
}

// errPipeline maps a failed run to a buffered HTTP response.
func errPipeline(c *fiber.Ctx, err error) error {
	var (
		valErr     *domain.ValidationError
		geoErr     *domain.GeocodingError
		timeoutErr *domain.TimeoutError
	)
	switch {
	case errors.As(err, &valErr):
		return errBadRequest(c, err.Error())
	case errors.As(err, &geoErr):
		return errUnprocessable(c, err.Error())
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return errGatewayTimeout(c, err.Error())
	case errors.Is(err, context.Canceled):
		return errInternal(c, "request cancelled")
	default:
		return errBadGateway(c, err.Error())
	}
}

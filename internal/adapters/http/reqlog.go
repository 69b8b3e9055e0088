package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/orbital/internal/pkg/logging"
)

// RequestIDLogMiddleware puts a request-scoped *slog.Logger carrying the
// request ID into the user context, where the pipeline picks it up through
// logging.FromContext.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, ok := c.Locals("requestid").(string)
		if !ok || rid == "" {
			return c.Next()
		}

		reqLogger := slog.Default().With("request_id", rid)
		c.SetUserContext(logging.WithLogger(c.UserContext(), reqLogger))

		return c.Next()
	}
}

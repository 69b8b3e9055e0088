package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/orbital/internal/pkg/metrics"
)

// shortRequestTimeout bounds endpoints that never run the full pipeline.
const shortRequestTimeout = 30 * time.Second

// isStreamPath reports whether path answers with a progress stream, which
// must reach the client unbuffered.
func isStreamPath(path string) bool {
	return strings.HasSuffix(path, "/stream") || path == "/api/generate-report"
}

// postOnly registers h for POST on path and a 405 for every other method.
func postOnly(r fiber.Router, path string, h fiber.Handler) {
	r.Post(path, h)
	r.All(path, MethodNotAllowedHandler())
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Compression would hold progress events back until the buffer fills.
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c *fiber.Ctx) bool {
			return isStreamPath(c.Path())
		},
	}))

	// Request ID doubles as the run ID of a report.
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(LegacyRoutes()))

	// Health & readiness, fast internal checks without a timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/layers", LayersHandler(deps))
	postOnly(v1, "/locations/resolve", timeout.NewWithContext(ResolveLocationHandler(deps), shortRequestTimeout))

	// Report runs are bounded by the per-stage timeouts of the pipeline.
	postOnly(v1, "/reports", BufferedReportHandler(deps))
	postOnly(v1, "/reports/stream", StreamReportHandler(deps))

	// Unversioned endpoints of the first release.
	legacy := app.Group("/api")
	postOnly(legacy, "/generate-report", StreamReportHandler(deps))
	postOnly(legacy, "/analyze", BufferedReportHandler(deps))
	postOnly(legacy, "/map-config", timeout.NewWithContext(ResolveLocationHandler(deps), shortRequestTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), shortRequestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app, deps)

	// WebSocket progress relay, available when a broker is configured.
	if deps.Subscriber != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/reports/:id", websocket.New(WebSocketHandler(deps.Subscriber)))
	}
}

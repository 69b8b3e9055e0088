package http

import (
	"bufio"
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/usecases"
	"github.com/samirrijal/orbital/internal/pkg/eventstream"
	"github.com/samirrijal/orbital/internal/pkg/logging"
	"github.com/samirrijal/orbital/internal/pkg/metrics"
)

// reportBody is the JSON body accepted by the report endpoints.
type reportBody struct {
	Prompt         string `json:"prompt"`
	HistoricalDate string `json:"historicalDate"`
	CurrentDate    string `json:"currentDate"`
}

// locationBody is the JSON body accepted by the location endpoint.
type locationBody struct {
	Prompt string `json:"prompt"`
}

// locationResponse frames a resolved place for both map views.
type locationResponse struct {
	DisplayName string        `json:"displayName"`
	Bounds      [2][2]float64 `json:"bounds"`
	ImageryBBox [4]float64    `json:"imageryBBox"`
	InstanceID  string        `json:"instanceId,omitempty"`
}

func bindReportRequest(c *fiber.Ctx) (domain.ReportRequest, error) {
	var body reportBody
	if err := c.BodyParser(&body); err != nil {
		return domain.ReportRequest{}, &domain.ValidationError{Reason: "invalid request body"}
	}
	return usecases.ParseReportRequest(body.Prompt, body.HistoricalDate, body.CurrentDate)
}

func runID(c *fiber.Ctx) string {
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		return rid
	}
	return uuid.NewString()
}

// streamSink writes each event to the response stream and flushes it so the
// client sees progress as it happens. A failed flush means the client is gone.
type streamSink struct {
	w *bufio.Writer
}

func (s streamSink) Emit(_ context.Context, ev domain.ProgressEvent) error {
	if err := eventstream.Encode(s.w, ev); err != nil {
		return err
	}
	return s.w.Flush()
}

// withMirror tees progress to the broker when one is configured.
func withMirror(deps *Dependencies, id string, primary usecases.ProgressSink) usecases.ProgressSink {
	if deps.Publisher == nil {
		return primary
	}
	return usecases.TeeSink{
		Primary: primary,
		Mirrors: []usecases.ProgressSink{usecases.PublisherSink{RunID: id, Publisher: deps.Publisher}},
	}
}

// StreamReportHandler runs the pipeline and streams progress events as they
// are produced. Validation problems are answered with a plain 400 before the
// stream opens; every later failure is reported in-band as an error event.
func StreamReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := bindReportRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		id := runID(c)
		// The fiber context is recycled once the handler returns, so
		// everything the writer needs is captured here.
		ctx := c.UserContext()
		logger := logging.FromContext(ctx).With("run_id", id)

		c.Set(fiber.HeaderContentType, eventstream.ContentType)
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")
		c.Set(fiber.HeaderXRequestID, id)
		c.Status(fiber.StatusOK)

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			metrics.ActiveStreams.Inc()
			defer metrics.ActiveStreams.Dec()

			runCtx, cancel := context.WithCancel(logging.WithLogger(ctx, logger))
			defer cancel()

			if err := deps.Reports.Run(runCtx, req, withMirror(deps, id, streamSink{w: w})); err != nil {
				logger.Warn("report run ended with error", "error", err)
			}
		}))
		return nil
	}
}

// BufferedReportHandler runs the pipeline to completion and answers with the
// final payload, or with an APIError mapped from the failure.
func BufferedReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := bindReportRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		id := runID(c)
		c.Set(fiber.HeaderXRequestID, id)

		sink := &usecases.BufferedSink{}
		if err := deps.Reports.Run(c.UserContext(), req, withMirror(deps, id, sink)); err != nil {
			return errPipeline(c, err)
		}

		final, ok := sink.Terminal()
		if !ok || final.Kind != domain.EventFinalResult {
			return errInternal(c, "pipeline finished without a result")
		}
		return c.JSON(final.Payload)
	}
}

// ResolveLocationHandler resolves a prompt to a framed place without running
// the rest of the pipeline.
func ResolveLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body locationBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		prompt := strings.TrimSpace(body.Prompt)
		if prompt == "" {
			return errBadRequest(c, "A location prompt is required.")
		}

		loc, err := deps.Locations.Resolve(c.UserContext(), prompt)
		if err != nil {
			return errPipeline(c, err)
		}

		return c.JSON(locationResponse{
			DisplayName: loc.DisplayName,
			Bounds:      loc.BoundingBox.MapView(),
			ImageryBBox: loc.BoundingBox.ImageryQuery(),
			InstanceID:  deps.InstanceID,
		})
	}
}

// LayersHandler lists the imaging layers every report analyses.
func LayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"layers": deps.Imagery.Layers()})
	}
}

// MethodNotAllowedHandler answers any method other than the one registered
// before it on the same path.
func MethodNotAllowedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return errMethodNotAllowed(c)
	}
}

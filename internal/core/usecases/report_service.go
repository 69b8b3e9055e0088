package usecases

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/pkg/logging"
	"github.com/samirrijal/orbital/internal/pkg/metrics"
	"github.com/samirrijal/orbital/internal/pkg/telemetry"
)

// Status texts shown to the user while a stage runs.
const (
	StatusRefining     = "Refining location from your prompt..."
	StatusResearching  = "Agent 1: Performing web research on climate effects..."
	StatusImaging      = "Fetching satellite imagery arrays for analysis..."
	StatusSynthesizing = "Agent 2: Synthesizing images and research into a final report..."
)

// StatusGeocoding is shown while the refined name is looked up.
func StatusGeocoding(name string) string {
	return fmt.Sprintf("Geocoding %q...", name)
}

// ReportService runs the report pipeline:
//
//	Idle -> Geocoding -> Researching || Imaging -> Synthesizing -> Done | Failed
//
// Every run ends with exactly one terminal event on its sink.
type ReportService struct {
	locations    *LocationService
	research     *ResearchService
	imagery      *ImageryService
	synthesis    *SynthesisService
	instanceID   string
	stageTimeout time.Duration
}

// NewReportService creates a new ReportService. instanceID is passed through
// to the map configuration; stageTimeout of zero disables stage deadlines.
func NewReportService(
	locations *LocationService,
	research *ResearchService,
	imagery *ImageryService,
	synthesis *SynthesisService,
	instanceID string,
	stageTimeout time.Duration,
) *ReportService {
	return &ReportService{
		locations:    locations,
		research:     research,
		imagery:      imagery,
		synthesis:    synthesis,
		instanceID:   instanceID,
		stageTimeout: stageTimeout,
	}
}

// Run executes one pipeline and reports progress to sink. The returned error
// is the failure already delivered as the terminal error event, or the sink
// error that aborted the run.
func (s *ReportService) Run(ctx context.Context, req domain.ReportRequest, sink ProgressSink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanReport)
	defer span.End()

	log := logging.FromContext(ctx)
	out := &guardedSink{next: sink}
	emit := func(ev domain.ProgressEvent) error {
		if err := out.Emit(ctx, ev); err != nil {
			cancel()
			return &sinkError{err: err}
		}
		return nil
	}

	start := time.Now()
	payload, err := s.execute(ctx, req, emit)
	if err == nil {
		err = emit(domain.FinalResultEvent(payload))
	}

	outcome := "done"
	switch {
	case err == nil:
		log.Info("report completed", "duration", time.Since(start), "sources", len(payload.AnalysisResult.Sources))
		span.SetStatus(codes.Ok, "done")
	case isSinkError(err):
		outcome = "disconnected"
		log.Warn("report aborted, progress consumer gone", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "consumer gone")
	default:
		outcome = "failed"
		log.Warn("report failed", "error", err, "kind", errorKind(err), "duration", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(telemetry.AttrErrorKind, errorKind(err)))
		_ = emit(domain.ErrorEvent(err.Error()))
	}
	metrics.ReportsTotal.WithLabelValues(outcome).Inc()
	return err
}

func (s *ReportService) execute(ctx context.Context, req domain.ReportRequest, emit func(domain.ProgressEvent) error) (payload domain.ReportPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("report pipeline panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	// Geocoding
	if err := emit(domain.StatusEvent(StatusRefining)); err != nil {
		return payload, err
	}
	name, err := runStage(ctx, s.stageTimeout, domain.StateGeocoding, telemetry.SpanGeocode, func(ctx context.Context) (string, error) {
		return s.locations.Refine(ctx, req.Prompt)
	})
	if err != nil {
		return payload, err
	}
	if err := emit(domain.StatusEvent(StatusGeocoding(name))); err != nil {
		return payload, err
	}
	loc, err := runStage(ctx, s.stageTimeout, domain.StateGeocoding, telemetry.SpanGeocode, func(ctx context.Context) (domain.ResolvedLocation, error) {
		return s.locations.Lookup(ctx, name)
	})
	if err != nil {
		return payload, err
	}
	logging.FromContext(ctx).Info("location resolved", "name", loc.DisplayName, "bbox", loc.BoundingBox.ImageryQuery())

	// Researching || Imaging. Both statuses go out before either starts so
	// that their order never depends on scheduling.
	if err := emit(domain.StatusEvent(StatusResearching)); err != nil {
		return payload, err
	}
	if err := emit(domain.StatusEvent(StatusImaging)); err != nil {
		return payload, err
	}

	var (
		research []domain.SearchResult
		images   []domain.ImageAsset
	)
	// Both stages start together; the Imaging status above is not a step after Researching.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(recovered(gCtx, func() error {
		var err error
		research, err = runStage(gCtx, s.stageTimeout, domain.StateResearching, telemetry.SpanResearch, func(ctx context.Context) ([]domain.SearchResult, error) {
			return s.research.Run(ctx, req.Prompt)
		})
		return err
	}))
	g.Go(recovered(gCtx, func() error {
		var err error
		images, err = runStage(gCtx, s.stageTimeout, domain.StateImaging, telemetry.SpanImagery, func(ctx context.Context) ([]domain.ImageAsset, error) {
			return s.imagery.Acquire(ctx, loc, req.Historical, req.Current)
		})
		return err
	}))
	if err := g.Wait(); err != nil {
		return payload, err
	}

	// Synthesizing
	if err := emit(domain.StatusEvent(StatusSynthesizing)); err != nil {
		return payload, err
	}
	report, err := runStage(ctx, s.stageTimeout, domain.StateSynthesizing, telemetry.SpanSynthesize, func(ctx context.Context) (domain.AnalysisReport, error) {
		return s.synthesis.Synthesize(ctx, images, research)
	})
	if err != nil {
		return payload, err
	}

	return domain.ReportPayload{
		MapConfig:      domain.NewMapConfig(loc, s.instanceID),
		AnalysisResult: report,
	}, nil
}

// runStage runs fn under its own span and deadline. A deadline hit inside the
// stage becomes a *domain.TimeoutError.
func runStage[T any](ctx context.Context, timeout time.Duration, state domain.PipelineState, spanName string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := telemetry.Tracer().Start(ctx, spanName)
	defer span.End()

	stageCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := fn(stageCtx)
	metrics.StageDuration.WithLabelValues(state.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		if timeout > 0 && ctx.Err() == nil && errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			err = &domain.TimeoutError{Stage: state.String(), After: timeout}
		}
		metrics.StageFailures.WithLabelValues(state.String(), errorKind(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}

func recovered(ctx context.Context, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.FromContext(ctx).Error("report stage panicked", "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("internal error: %v", r)
			}
		}()
		return fn()
	}
}

// sinkError marks a failed write to the progress sink.
type sinkError struct{ err error }

func (e *sinkError) Error() string { return "emit progress: " + e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

func isSinkError(err error) bool {
	var se *sinkError
	return errors.As(err, &se)
}

func errorKind(err error) string {
	var (
		geo     *domain.GeocodingError
		tool    *domain.AgentToolSelectionError
		image   *domain.ImageFetchError
		parse   *domain.SynthesisParseError
		timeout *domain.TimeoutError
	)
	switch {
	case errors.As(err, &geo):
		return "geocoding"
	case errors.As(err, &tool):
		return "tool_selection"
	case errors.As(err, &image):
		return "image_fetch"
	case errors.As(err, &parse):
		return "synthesis_parse"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "upstream"
	}
}

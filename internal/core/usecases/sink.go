package usecases

import (
	"context"
	"sync"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/pkg/logging"
)

// ProgressSink receives the progress events of one run. An Emit error means
// the consumer is gone and the run should stop.
type ProgressSink interface {
	Emit(ctx context.Context, ev domain.ProgressEvent) error
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(ctx context.Context, ev domain.ProgressEvent) error

func (f SinkFunc) Emit(ctx context.Context, ev domain.ProgressEvent) error { return f(ctx, ev) }

// BufferedSink collects every event for callers that answer in one response.
type BufferedSink struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

// Emit appends ev.
func (s *BufferedSink) Emit(_ context.Context, ev domain.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of everything emitted so far.
func (s *BufferedSink) Events() []domain.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ProgressEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Terminal returns the terminal event, if one was emitted.
func (s *BufferedSink) Terminal() (domain.ProgressEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Terminal() {
			return s.events[i], true
		}
	}
	return domain.ProgressEvent{}, false
}

// PublisherSink mirrors events to a broker subject keyed by run id.
type PublisherSink struct {
	RunID     string
	Publisher ports.EventPublisher
}

func (s PublisherSink) Emit(ctx context.Context, ev domain.ProgressEvent) error {
	return s.Publisher.PublishProgress(ctx, s.RunID, ev)
}

// TeeSink forwards to Primary and then to each mirror. Only Primary errors
// are returned; mirror failures are logged and ignored.
type TeeSink struct {
	Primary ProgressSink
	Mirrors []ProgressSink
}

func (s TeeSink) Emit(ctx context.Context, ev domain.ProgressEvent) error {
	if err := s.Primary.Emit(ctx, ev); err != nil {
		return err
	}
	for _, m := range s.Mirrors {
		if err := m.Emit(ctx, ev); err != nil {
			logging.FromContext(ctx).Warn("progress mirror failed", "error", err)
		}
	}
	return nil
}

// guardedSink drops everything after the first terminal event.
type guardedSink struct {
	mu     sync.Mutex
	next   ProgressSink
	closed bool
}

func (g *guardedSink) Emit(ctx context.Context, ev domain.ProgressEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	if ev.Terminal() {
		g.closed = true
	}
	return g.next.Emit(ctx, ev)
}

package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/orbital/internal/core/domain"
)

// Subscriber follows the progress of runs published by Publisher.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber creates a subscriber on a shared connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// FollowRun delivers every progress event of runID to handler until the
// terminal event arrives or ctx is done. The returned channel is closed
// once the subscription has ended.
func (s *Subscriber) FollowRun(ctx context.Context, runID string, handler func(domain.ProgressEvent) error) (<-chan struct{}, error) {
	msgs := make(chan *nats.Msg, 64)
	sub, err := s.conn.ChanSubscribe(ProgressSubject(runID), msgs)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = sub.Unsubscribe() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				var ev domain.ProgressEvent
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					slog.Warn("dropping malformed progress event", "subject", msg.Subject, "error", err)
					continue
				}
				if err := handler(ev); err != nil || ev.Terminal() {
					return
				}
			}
		}
	}()
	return done, nil
}

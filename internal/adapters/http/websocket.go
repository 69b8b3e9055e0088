package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/samirrijal/orbital/internal/adapters/nats"
	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// WebSocketHandler relays the progress of one run, identified by the :id
// route parameter, from the broker to a WebSocket client. The connection is
// closed after the terminal event.
func WebSocketHandler(sub *natsadapter.Subscriber) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		runID := c.Params("id")
		logger := slog.Default().With("run_id", runID, "remote", c.RemoteAddr().String())
		logger.Info("ws client connected")

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		relayDone, err := sub.FollowRun(ctx, runID, func(ev domain.ProgressEvent) error {
			return writeJSON(ev)
		})
		if err != nil {
			logger.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
			return
		}

		// The read loop only exists to notice the client going away.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-relayDone:
				mu.Lock()
				_ = c.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				mu.Unlock()
				logger.Info("ws relay finished")
				return
			case <-clientGone:
				logger.Info("ws client disconnected")
				return
			case <-ticker.C:
				mu.Lock()
				err := c.WriteMessage(websocket.PingMessage, nil)
				mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}
}

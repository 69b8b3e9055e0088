package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samirrijal/orbital/internal/bootstrap"
	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/pkg/config"
	"github.com/samirrijal/orbital/internal/pkg/logging"
)

// dateFlags are shared by the commands that start a report.
type dateFlags struct {
	historical string
	current    string
}

func promptArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// loadServices reads configuration and assembles the in-process pipeline.
// Logs go to stderr so stdout stays machine-readable.
func loadServices(ctx context.Context, stderr io.Writer) (*bootstrap.Services, error) {
	cfg, err := config.Load("reportctl")
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.New(stderr, cfg.Log.Level, "text"))
	return bootstrap.Build(ctx, cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEvent renders a progress event: statuses go to progress, the terminal
// payload to out. An error event is returned as an error.
func printEvent(out, progress io.Writer, ev domain.ProgressEvent) error {
	switch ev.Kind {
	case domain.EventStatus:
		fmt.Fprintf(progress, "… %s\n", ev.Status)
		return nil
	case domain.EventFinalResult:
		return writeJSON(out, ev.Payload)
	case domain.EventError:
		return fmt.Errorf("report failed: %s", ev.Message)
	default:
		return fmt.Errorf("unexpected event kind %d", ev.Kind)
	}
}

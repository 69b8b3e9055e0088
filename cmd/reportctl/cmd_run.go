package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/usecases"
	"github.com/samirrijal/orbital/internal/pkg/eventstream"
)

var runFlags struct {
	dateFlags
	raw bool
}

var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Run a report in-process and print the result",
	Long: `Runs the full pipeline in this process using the server configuration
(ORBITAL_* variables, .env or config.yaml). Progress goes to stderr and the
final payload to stdout as JSON. With --raw every event is written to stdout
in the same event-stream framing the server uses.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.historical, "historical", "", "Historical snapshot date, YYYY-MM-DD (required)")
	f.StringVar(&runFlags.current, "current", "", "Current snapshot date, YYYY-MM-DD (required)")
	f.BoolVar(&runFlags.raw, "raw", false, "Write raw progress events instead of the final payload")

	_ = runCmd.MarkFlagRequired("historical")
	_ = runCmd.MarkFlagRequired("current")
}

func runRun(cmd *cobra.Command, args []string) error {
	req, err := usecases.ParseReportRequest(promptArg(args), runFlags.historical, runFlags.current)
	if err != nil {
		return err
	}

	svc, err := loadServices(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer svc.Close()

	out, progress := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var sink usecases.ProgressSink = usecases.SinkFunc(func(_ context.Context, ev domain.ProgressEvent) error {
		if runFlags.raw {
			return eventstream.Encode(out, ev)
		}
		if ev.Kind == domain.EventError {
			// Reported through the returned error instead.
			return nil
		}
		return printEvent(out, progress, ev)
	})

	if err := svc.Reports.Run(cmd.Context(), req, sink); err != nil {
		var geoErr *domain.GeocodingError
		if errors.As(err, &geoErr) {
			return fmt.Errorf("could not find that place: %w", err)
		}
		return err
	}
	return nil
}

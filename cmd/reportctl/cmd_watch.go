package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/orbital/internal/pkg/eventstream"
)

var watchFlags struct {
	dateFlags
	server   string
	runID    string
	buffered bool
}

var watchCmd = &cobra.Command{
	Use:   "watch <prompt>",
	Short: "Start a report on a server and print its progress",
	Long: `Posts the prompt to a running API server and renders the progress stream
as it arrives. With --buffered the server runs the report to completion and
answers with the final payload in one response.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchFlags.server, "server", "http://localhost:8080", "API server base URL")
	f.StringVar(&watchFlags.historical, "historical", "", "Historical snapshot date, YYYY-MM-DD (required)")
	f.StringVar(&watchFlags.current, "current", "", "Current snapshot date, YYYY-MM-DD (required)")
	f.StringVar(&watchFlags.runID, "run-id", "", "Run ID to request, so others can follow the run")
	f.BoolVar(&watchFlags.buffered, "buffered", false, "Wait for the final payload instead of streaming")

	_ = watchCmd.MarkFlagRequired("historical")
	_ = watchCmd.MarkFlagRequired("current")
}

func runWatch(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(map[string]string{
		"prompt":         promptArg(args),
		"historicalDate": watchFlags.historical,
		"currentDate":    watchFlags.current,
	})
	if err != nil {
		return err
	}

	path := "/v1/reports/stream"
	if watchFlags.buffered {
		path = "/v1/reports"
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		strings.TrimRight(watchFlags.server, "/")+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if watchFlags.runID != "" {
		req.Header.Set("X-Request-ID", watchFlags.runID)
	}

	// No client timeout: a stream lasts as long as the run.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	out, progress := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if id := resp.Header.Get("X-Request-ID"); id != "" {
		fmt.Fprintf(progress, "run %s\n", id)
	}

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if watchFlags.buffered {
		_, err := io.Copy(out, resp.Body)
		return err
	}

	dec := eventstream.NewDecoder(resp.Body)
	for {
		ev, err := dec.NextEvent()
		if errors.Is(err, io.EOF) {
			return errors.New("stream ended without a result")
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		if err := printEvent(out, progress, ev); err != nil {
			return err
		}
		if ev.Terminal() {
			return nil
		}
	}
}

// apiError turns a non-200 JSON error body into an error.
func apiError(resp *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	return fmt.Errorf("server answered %s: %s", resp.Status, body.Message)
}

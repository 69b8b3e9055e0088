package main

import (
	"fmt"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/orbital/internal/adapters/nats"
	"github.com/samirrijal/orbital/internal/core/domain"
)

var followFlags struct {
	natsURL string
}

var followCmd = &cobra.Command{
	Use:   "follow <run-id>",
	Short: "Follow a run's progress from the NATS broker",
	Long: `Subscribes to the progress subject of a run started elsewhere (for example
with 'reportctl watch --run-id') and prints events until the terminal one.`,
	Args: cobra.ExactArgs(1),
	RunE: runFollow,
}

func init() {
	followCmd.Flags().StringVar(&followFlags.natsURL, "nats", "nats://localhost:4222", "NATS server URL")
}

func runFollow(cmd *cobra.Command, args []string) error {
	conn, err := natsadapter.RawConn(followFlags.natsURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer conn.Close()

	out, progress := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var runErr error
	done, err := natsadapter.NewSubscriber(conn).FollowRun(cmd.Context(), args[0], func(ev domain.ProgressEvent) error {
		runErr = printEvent(out, progress, ev)
		return runErr
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(progress, "following %s\n", natsadapter.ProgressSubject(args[0]))
	<-done
	if runErr == nil && cmd.Context().Err() != nil {
		return cmd.Context().Err()
	}
	return runErr
}

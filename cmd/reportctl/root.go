// reportctl drives the change-report pipeline from a terminal.
//
// Usage:
//
//	reportctl run --historical=2015-06-01 --current=2024-06-01 "deforestation in the Amazon"
//	reportctl resolve "the big apple"
//	reportctl layers
//	reportctl watch --server=http://localhost:8080 --historical=... --current=... "<prompt>"
//	reportctl follow --nats=nats://localhost:4222 <run-id>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Environmental change reports from satellite imagery",
	Long: "reportctl resolves a place from a free-text prompt, compares satellite imagery\n" +
		"of two dates and prints the analysis, either in-process or against a server.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(layersCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

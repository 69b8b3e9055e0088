package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "List the imaging layers every report analyses",
	RunE:  runLayers,
}

func runLayers(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer svc.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, l := range svc.Imagery.Layers() {
		fmt.Fprintf(tw, "%s\t%s\n", l.ID, l.Name)
	}
	return tw.Flush()
}

package main

import (
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <prompt>",
	Short: "Resolve a prompt to a place and its bounding box",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer svc.Close()

	loc, err := svc.Locations.Resolve(cmd.Context(), promptArg(args))
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"displayName": loc.DisplayName,
		"bounds":      loc.BoundingBox.MapView(),
		"imageryBBox": loc.BoundingBox.ImageryQuery(),
		"diagonalKm":  loc.BoundingBox.DiagonalMeters() / 1000,
	})
}

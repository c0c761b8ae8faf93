package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newChartCmd(g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Write the training report image of the active model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(g.artifacts, g.logger(cmd))
			if err != nil {
				return err
			}
			png, err := ws.report.Execute(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, png, 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(png))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output PNG file (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

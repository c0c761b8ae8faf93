package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/heartcheck/heartcheck/internal/infrastructure/artifact"
)

type inspection struct {
	Manifest artifact.Manifest `json:"manifest"`
	Encoders json.RawMessage   `json:"encoders"`
}

func newInspectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Dump the manifest and fitted encoders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(g.artifacts, g.logger(cmd))
			if err != nil {
				return err
			}
			manifest, err := ws.artifacts.Manifest()
			if err != nil {
				return err
			}
			enc, err := ws.artifacts.LoadEncoders(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := enc.Marshal()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), inspection{Manifest: manifest, Encoders: raw})
		},
	}
}

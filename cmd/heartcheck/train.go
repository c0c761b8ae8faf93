package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/heartcheck/heartcheck/internal/application/dto"
)

type trainOptions struct {
	data   string
	format string
	model  string
	policy string
}

func newTrainCmd(g *globalFlags) *cobra.Command {
	opts := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a model on a dataset file and commit the artifacts",
		Long: `Read a labelled dataset (csv, xlsx or json), fit the encoders and the
model, evaluate on a held-out split and commit everything to the artifact
directory. The run summary is printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, g, opts)
		},
	}
	cmd.Flags().StringVar(&opts.data, "data", "", "dataset file (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "csv, xlsx or json; detected from the extension when empty")
	cmd.Flags().StringVar(&opts.model, "model", "", "logistic_regression or nearest_centroid")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "reuse or refit")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runTrain(cmd *cobra.Command, g *globalFlags, opts *trainOptions) error {
	logger := g.logger(cmd)
	ws, err := openWorkspace(g.artifacts, logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.data)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	resp, err := ws.retrain.Execute(cmd.Context(), dto.RetrainRequest{
		Data:      data,
		Format:    opts.format,
		Filename:  filepath.Base(opts.data),
		ModelKind: opts.model,
		Policy:    opts.policy,
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

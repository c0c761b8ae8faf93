package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartcheck/heartcheck/internal/application/dto"
)

func newPredictCmd(g *globalFlags) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score records read from a JSON file or stdin",
		Long: `Score one record (a JSON object) or several (a JSON array of objects)
against the active model. Use --input - to read stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd, g, input)
		},
	}
	cmd.Flags().StringVar(&input, "input", "-", "JSON file, or - for stdin")
	return cmd
}

func runPredict(cmd *cobra.Command, g *globalFlags, input string) error {
	raw, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	logger := g.logger(cmd)
	ws, err := openWorkspace(g.artifacts, logger)
	if err != nil {
		return err
	}
	if err := ws.holder.Reload(cmd.Context()); err != nil {
		return fmt.Errorf("load model from %s: %w", g.artifacts, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []dto.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return fmt.Errorf("parse records: %w", err)
		}
		resp, err := ws.predictBatch.Execute(cmd.Context(), dto.PredictBatchRequest{Records: records})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	}

	var rec dto.Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return fmt.Errorf("parse record: %w", err)
	}
	resp, err := ws.predict.Execute(cmd.Context(), dto.PredictRequest{Record: rec})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func readInput(cmd *cobra.Command, input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

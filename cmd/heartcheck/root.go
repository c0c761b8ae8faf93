package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heartcheck/heartcheck/internal/application/usecase"
	"github.com/heartcheck/heartcheck/internal/domain/service"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	"github.com/heartcheck/heartcheck/internal/infrastructure/artifact"
	"github.com/heartcheck/heartcheck/internal/infrastructure/dataset"
	infrakafka "github.com/heartcheck/heartcheck/internal/infrastructure/kafka"
	"github.com/heartcheck/heartcheck/internal/infrastructure/memory"
	"github.com/heartcheck/heartcheck/internal/infrastructure/ml"
	"github.com/heartcheck/heartcheck/internal/infrastructure/report"
	"github.com/heartcheck/heartcheck/internal/infrastructure/telemetry"
	"github.com/heartcheck/heartcheck/pkg/observability"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	artifacts string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "heartcheck",
		Short: "Train and query the heart disease risk model offline",
		Long: `heartcheck works directly on an artifact directory, the same one
predictord serves from. A predictord watching that directory picks up
models trained here.

Available subcommands:
  train   - Fit a model on a dataset file and commit the artifacts
  predict - Score records read from a JSON file or stdin
  inspect - Dump the manifest and fitted encoders
  chart   - Write the training report image of the active model`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.artifacts, "artifacts", "./artifacts", "artifact directory")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newTrainCmd(g),
		newPredictCmd(g),
		newInspectCmd(g),
		newChartCmd(g),
	)
	return root
}

func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	return observability.InitLogger(observability.LogConfig{
		Level:  g.logLevel,
		Format: "text",
		Output: cmd.ErrOrStderr(),
	})
}

// workspace is the offline wiring of the use cases around one artifact directory.
type workspace struct {
	artifacts    *artifact.Store
	holder       *service.EngineHolder
	predict      *usecase.Predict
	predictBatch *usecase.PredictBatch
	retrain      *usecase.Retrain
	report       *usecase.GetReport
}

func openWorkspace(dir string, logger *slog.Logger) (*workspace, error) {
	store, err := artifact.NewStore(dir, ml.NewCodec(), logger)
	if err != nil {
		return nil, err
	}
	holder := service.NewEngineHolder(func(ctx context.Context) (*service.Engine, error) {
		b, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		return service.NewEngine(b)
	}, logger)

	publisher := infrakafka.NewLogPublisher(logger)
	instruments := telemetry.Noop()
	pipeline := usecase.NewTrainingPipeline(usecase.TrainingDeps{
		Records:       memory.NewRecordStore(),
		Artifacts:     store,
		Runs:          memory.NewTrainingRunRepository(),
		Renderer:      report.NewRenderer(),
		Publisher:     publisher,
		Holder:        holder,
		Trainers:      ml.NewTrainer,
		Instruments:   instruments,
		Logger:        logger,
		DefaultKind:   valueobject.ModelKindLogistic,
		DefaultPolicy: valueobject.CategoricalPolicyReuse,
	})

	return &workspace{
		artifacts:    store,
		holder:       holder,
		predict:      usecase.NewPredict(holder, publisher, instruments, logger),
		predictBatch: usecase.NewPredictBatch(holder, publisher, instruments, logger),
		retrain:      usecase.NewRetrain(pipeline, dataset.NewReader()),
		report:       usecase.NewGetReport(store),
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

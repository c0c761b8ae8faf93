package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/heartcheck/heartcheck/internal/application/dto"
	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/encoding"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/service"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	"github.com/heartcheck/heartcheck/internal/infrastructure/telemetry"
)

// TrainerFactory returns the fitter for a model family.
type TrainerFactory func(kind valueobject.ModelKind) (port.ModelTrainer, error)

// TrainingDeps are the collaborators of the retrain pipeline.
type TrainingDeps struct {
	Records     port.RecordStore
	Artifacts   port.ArtifactStore
	Runs        port.TrainingRunRepository
	Renderer    port.ReportRenderer
	Publisher   port.EventPublisher
	Holder      *service.EngineHolder
	Trainers    TrainerFactory
	Instruments *telemetry.Instruments
	Logger      *slog.Logger

	DefaultKind   valueobject.ModelKind
	DefaultPolicy valueobject.CategoricalPolicy
}

// TrainingPipeline runs preprocess, train, persist and deploy. At most one
// run is in flight per process; a second caller fails fast instead of queueing
// behind a long fit.
type TrainingPipeline struct {
	deps TrainingDeps
	sem  *semaphore.Weighted
}

// NewTrainingPipeline creates the shared pipeline.
func NewTrainingPipeline(deps TrainingDeps) *TrainingPipeline {
	return &TrainingPipeline{deps: deps, sem: semaphore.NewWeighted(1)}
}

type trainingOptions struct {
	kind   valueobject.ModelKind
	policy valueobject.CategoricalPolicy
	source string

	// replaceRecords stores the dataset as the new record table.
	replaceRecords bool
}

func (p *TrainingPipeline) options(kind, policy, source string, replace bool) (trainingOptions, error) {
	opts := trainingOptions{kind: p.deps.DefaultKind, policy: p.deps.DefaultPolicy, source: source, replaceRecords: replace}
	if kind != "" {
		k, err := valueobject.ModelKindFromString(kind)
		if err != nil {
			return opts, apperr.InvalidArgument("%v", err)
		}
		opts.kind = k
	}
	if policy != "" {
		pol, err := valueobject.CategoricalPolicyFromString(policy)
		if err != nil {
			return opts, apperr.InvalidArgument("%v", err)
		}
		opts.policy = pol
	}
	return opts, nil
}

// acquire claims the single retrain slot.
func (p *TrainingPipeline) acquire() (release func(), err error) {
	if !p.sem.TryAcquire(1) {
		return nil, apperr.ErrRetrainInProgress
	}
	return func() { p.sem.Release(1) }, nil
}

// run executes the pipeline on a parsed dataset. The caller holds the slot.
//
// Validation and parse failures leave every store untouched and are not
// recorded as runs. Failures after a model has been fitted are recorded as
// FAILED runs.
func (p *TrainingPipeline) run(ctx context.Context, ds *model.Dataset, opts trainingOptions) (resp dto.TrainingRunResponse, err error) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "TrainingPipeline.run")
	defer func() {
		outcome := "completed"
		if err != nil {
			outcome = string(apperr.KindOf(err))
			spanError(span, err)
		}
		p.deps.Instruments.Retrain(ctx, outcome, time.Since(started))
		span.End()
	}()
	span.SetAttributes(
		attribute.String("model.kind", opts.kind.String()),
		attribute.String("encoder.policy", opts.policy.String()),
		attribute.Int("dataset.rows", ds.Len()),
	)
	log := p.deps.Logger.With("model", opts.kind.String(), "policy", opts.policy.String(), "source", opts.source)

	fitter, err := p.deps.Trainers(opts.kind)
	if err != nil {
		return dto.TrainingRunResponse{}, apperr.InvalidArgument("%v", err)
	}

	existing, err := p.existingEncoders(ctx, opts.policy, log)
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}

	prep, err := service.NewPreprocessor(opts.policy).Preprocess(ds, existing)
	if err != nil {
		log.WarnContext(ctx, "dataset rejected", "error", err, "kind", apperr.KindOf(err))
		return dto.TrainingRunResponse{}, err
	}

	trained, metrics, err := service.NewTrainer(fitter).Train(ctx, prep.Features, prep.Labels)
	if err != nil {
		log.WarnContext(ctx, "training failed", "error", err)
		return dto.TrainingRunResponse{}, err
	}

	run, err := model.NewTrainingRun(opts.kind, opts.policy, opts.source)
	if err != nil {
		return dto.TrainingRunResponse{}, fmt.Errorf("failed to create training run: %w", err)
	}

	if err := p.deploy(ctx, run, ds, prep, trained, metrics, opts); err != nil {
		run.Fail(err.Error())
		if saveErr := p.deps.Runs.Save(ctx, run); saveErr != nil {
			log.ErrorContext(ctx, "failed to save failed run", "run_id", run.ID(), "error", saveErr)
		}
		return dto.TrainingRunResponse{}, err
	}

	if err := p.deps.Runs.Save(ctx, run); err != nil {
		// The new model is already serving; losing the history row is not
		// worth failing the request over.
		log.ErrorContext(ctx, "failed to save training run", "run_id", run.ID(), "error", err)
	}
	if evts := run.ClearEvents(); len(evts) > 0 {
		if err := p.deps.Publisher.Publish(ctx, evts...); err != nil {
			log.WarnContext(ctx, "failed to publish training events", "run_id", run.ID(), "error", err)
		}
	}

	log.InfoContext(ctx, "training run completed",
		"run_id", run.ID(),
		"records", ds.Len(),
		"accuracy", metrics.Accuracy,
		"f1", metrics.F1Score,
		"reused_encoders", prep.ReusedEncoders,
	)

	resp = dto.FromTrainingRun(run)
	resp.ReusedEncoders = prep.ReusedEncoders
	resp.Message = fmt.Sprintf("Model retrained on %d records", ds.Len())
	return resp, nil
}

// deploy replaces stored records, commits artifacts and swaps the engine, in
// that order. There is no rollback: a partially applied deploy is reported as
// a failed run.
func (p *TrainingPipeline) deploy(
	ctx context.Context,
	run *model.TrainingRun,
	ds *model.Dataset,
	prep *service.Preprocessed,
	trained port.TrainedModel,
	metrics model.Metrics,
	opts trainingOptions,
) error {
	if opts.replaceRecords {
		if _, err := p.deps.Records.ReplaceAll(ctx, ds.Records); err != nil {
			return fmt.Errorf("failed to store records: %w", err)
		}
	}

	if err := run.Complete(metrics, ds.Len()); err != nil {
		return err
	}

	report, err := p.deps.Renderer.RenderMetrics(metrics)
	if err != nil {
		p.deps.Logger.WarnContext(ctx, "failed to render training report", "error", err)
		report = nil
	}

	bundle := port.ArtifactBundle{
		RunID:     run.ID(),
		CreatedAt: run.CompletedAt(),
		Encoders:  prep.Encoders,
		Model:     trained,
		Metrics:   metrics,
		Report:    report,
	}
	if err := p.deps.Artifacts.Commit(ctx, bundle); err != nil {
		return fmt.Errorf("failed to commit artifacts: %w", err)
	}

	engine, err := service.NewEngine(bundle)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	p.deps.Holder.Swap(engine)
	return nil
}

// existingEncoders returns the persisted store when the policy reuses it.
// A missing store means this is the first training run. A corrupt one is
// replaced by a fresh fit, since this run overwrites it anyway.
func (p *TrainingPipeline) existingEncoders(ctx context.Context, policy valueobject.CategoricalPolicy, log *slog.Logger) (*encoding.Store, error) {
	if !policy.Equal(valueobject.CategoricalPolicyReuse) {
		return nil, nil
	}
	store, err := p.deps.Artifacts.LoadEncoders(ctx)
	switch {
	case err == nil:
		return store, nil
	case errors.Is(err, apperr.ErrNotFound):
		return nil, nil
	case apperr.KindOf(err) == apperr.KindArtifactCorrupt:
		log.WarnContext(ctx, "persisted encoders unusable, refitting", "error", err)
		return nil, nil
	default:
		return nil, fmt.Errorf("failed to load encoders: %w", err)
	}
}

package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/heartcheck/heartcheck/internal/application/dto"
	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/event"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/service"
	"github.com/heartcheck/heartcheck/internal/infrastructure/telemetry"
)

var tracer = otel.Tracer("github.com/heartcheck/heartcheck/internal/application/usecase")

func spanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.kind", string(apperr.KindOf(err))))
}

// Predict is the use case for scoring one patient record.
type Predict struct {
	holder      *service.EngineHolder
	publisher   port.EventPublisher
	instruments *telemetry.Instruments
	logger      *slog.Logger
}

// NewPredict creates a new Predict use case.
func NewPredict(
	holder *service.EngineHolder,
	publisher port.EventPublisher,
	instruments *telemetry.Instruments,
	logger *slog.Logger,
) *Predict {
	return &Predict{holder: holder, publisher: publisher, instruments: instruments, logger: logger}
}

// Execute runs the record through the current engine.
func (uc *Predict) Execute(ctx context.Context, req dto.PredictRequest) (dto.PredictionResponse, error) {
	ctx, span := tracer.Start(ctx, "Predict")
	defer span.End()

	engine, err := uc.holder.Current()
	if err != nil {
		uc.instruments.PredictionError(ctx, string(apperr.KindOf(err)))
		spanError(span, err)
		return dto.PredictionResponse{}, err
	}

	result, err := engine.Predict(req.Record.ToModel())
	if err != nil {
		uc.instruments.PredictionError(ctx, string(apperr.KindOf(err)))
		spanError(span, err)
		return dto.PredictionResponse{}, err
	}

	span.SetAttributes(attribute.String("risk.tier", result.Tier.String()))
	uc.instruments.Prediction(ctx, result.Tier.String())
	publishHighRisk(ctx, uc.publisher, uc.logger, result)

	return dto.FromPrediction(result), nil
}

// PredictBatch scores several records against one engine snapshot, so every
// result in a response comes from the same model.
type PredictBatch struct {
	holder      *service.EngineHolder
	publisher   port.EventPublisher
	instruments *telemetry.Instruments
	logger      *slog.Logger
}

// NewPredictBatch creates a new PredictBatch use case.
func NewPredictBatch(
	holder *service.EngineHolder,
	publisher port.EventPublisher,
	instruments *telemetry.Instruments,
	logger *slog.Logger,
) *PredictBatch {
	return &PredictBatch{holder: holder, publisher: publisher, instruments: instruments, logger: logger}
}

// Execute fails as a whole when any record is invalid.
func (uc *PredictBatch) Execute(ctx context.Context, req dto.PredictBatchRequest) (dto.PredictBatchResponse, error) {
	ctx, span := tracer.Start(ctx, "PredictBatch", trace.WithAttributes(attribute.Int("batch.size", len(req.Records))))
	defer span.End()

	engine, err := uc.holder.Current()
	if err != nil {
		uc.instruments.PredictionError(ctx, string(apperr.KindOf(err)))
		spanError(span, err)
		return dto.PredictBatchResponse{}, err
	}

	records := make([]model.ClinicalRecord, len(req.Records))
	for i, r := range req.Records {
		records[i] = r.ToModel()
	}

	results, err := engine.PredictBatch(records)
	if err != nil {
		uc.instruments.PredictionError(ctx, string(apperr.KindOf(err)))
		spanError(span, err)
		return dto.PredictBatchResponse{}, err
	}

	resp := dto.PredictBatchResponse{Results: make([]dto.PredictionResponse, len(results))}
	for i, r := range results {
		uc.instruments.Prediction(ctx, r.Tier.String())
		publishHighRisk(ctx, uc.publisher, uc.logger, r)
		resp.Results[i] = dto.FromPrediction(r)
	}
	return resp, nil
}

// publishHighRisk announces urgent results. A broker failure must not turn a
// successful prediction into an error, so it is only logged.
func publishHighRisk(ctx context.Context, publisher port.EventPublisher, logger *slog.Logger, r model.PredictionResult) {
	if !r.Tier.Urgent() {
		return
	}
	evt := event.NewHighRiskPredicted(event.HighRiskPredicted{
		PredictionID: uuid.New(),
		ModelRunID:   r.ModelRunID,
		Probability:  r.Probability,
		Tier:         r.Tier.String(),
		PredictedAt:  time.Now().UTC(),
	})
	if err := publisher.Publish(ctx, evt); err != nil {
		logger.WarnContext(ctx, "failed to publish high risk event", "error", err)
	}
}

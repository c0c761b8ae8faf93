package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/encoding"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
)

// Engine serves predictions from one artifact bundle. It is never mutated
// after construction and is safe for concurrent use.
type Engine struct {
	loadedAt time.Time
	encoders *encoding.Store
	model    port.TrainedModel
	metrics  model.Metrics
	runID    uuid.UUID
}

// NewEngine checks the bundle is complete and mutually consistent. A bundle
// that fails any check yields ArtifactCorruptError and no engine.
func NewEngine(b port.ArtifactBundle) (*Engine, error) {
	if b.Encoders == nil {
		return nil, &apperr.ArtifactCorruptError{Artifact: encoding.ArtifactName, Reason: "missing"}
	}
	if err := b.Encoders.Validate(); err != nil {
		return nil, err
	}
	if b.Model == nil {
		return nil, &apperr.ArtifactCorruptError{Artifact: "model", Reason: "missing"}
	}
	if dim := b.Model.InputDim(); dim != schema.Width {
		return nil, &apperr.ArtifactCorruptError{
			Artifact: "model",
			Reason:   fmt.Sprintf("model expects %d features, schema has %d", dim, schema.Width),
		}
	}

	return &Engine{
		loadedAt: time.Now().UTC(),
		encoders: b.Encoders,
		model:    b.Model,
		metrics:  b.Metrics,
		runID:    b.RunID,
	}, nil
}

// Predict validates rec, encodes it with the loaded store and classifies it.
func (e *Engine) Predict(rec model.ClinicalRecord) (model.PredictionResult, error) {
	if err := rec.Validate(false); err != nil {
		return model.PredictionResult{}, err
	}

	x, err := e.encoders.Transform(rec)
	if err != nil {
		return model.PredictionResult{}, err
	}

	prediction := e.model.Classify(x)
	var probability *float64
	if p, ok := e.model.ScoreProbability(x); ok {
		probability = &p
	}

	return model.NewPredictionResult(prediction, probability, e.runID), nil
}

// PredictBatch predicts every record or fails on the first invalid one.
func (e *Engine) PredictBatch(recs []model.ClinicalRecord) ([]model.PredictionResult, error) {
	out := make([]model.PredictionResult, 0, len(recs))
	for i, rec := range recs {
		res, err := e.Predict(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (e *Engine) RunID() uuid.UUID          { return e.runID }
func (e *Engine) Model() port.TrainedModel  { return e.model }
func (e *Engine) Encoders() *encoding.Store { return e.encoders }
func (e *Engine) Metrics() model.Metrics    { return e.metrics }
func (e *Engine) LoadedAt() time.Time       { return e.loadedAt }

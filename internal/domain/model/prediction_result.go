package model

import (
	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// PredictionResult is the engine's answer for one record. Probability is nil
// when the deployed model has no probabilistic output.
type PredictionResult struct {
	Prediction  int
	Probability *float64
	Tier        valueobject.RiskTier
	ModelRunID  uuid.UUID
}

// NewPredictionResult derives the tier from the raw model outputs.
func NewPredictionResult(prediction int, probability *float64, runID uuid.UUID) PredictionResult {
	return PredictionResult{
		Prediction:  prediction,
		Probability: probability,
		Tier:        valueobject.ClassifyRisk(prediction, probability),
		ModelRunID:  runID,
	}
}

// Message is the clinician-facing text for the tier.
func (r PredictionResult) Message() string { return r.Tier.Message() }

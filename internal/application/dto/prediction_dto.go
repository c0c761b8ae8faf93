package dto

import (
	"math"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/model"
)

// Record is one patient's raw measurements. Every field must be present.
// A null numeric value is imputed; a null categorical value is rejected.
type Record map[string]*float64

// ToModel converts the wire record, mapping null to NaN.
func (r Record) ToModel() model.ClinicalRecord {
	out := make(model.ClinicalRecord, len(r))
	for k, v := range r {
		if v == nil {
			out[k] = math.NaN()
			continue
		}
		out[k] = *v
	}
	return out
}

// RecordFromModel converts a domain record, mapping NaN to null.
func RecordFromModel(rec model.ClinicalRecord) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if math.IsNaN(v) {
			out[k] = nil
			continue
		}
		out[k] = &v
	}
	return out
}

// PredictRequest is the input DTO for the Predict use case.
type PredictRequest struct {
	Record Record `json:"record"`
}

// PredictBatchRequest is the input DTO for the PredictBatch use case.
type PredictBatchRequest struct {
	Records []Record `json:"records"`
}

// PredictionResponse is the output DTO for one prediction.
type PredictionResponse struct {
	Prediction  int       `json:"prediction"`
	Probability *float64  `json:"probability"`
	RiskTier    string    `json:"risk_tier"`
	Message     string    `json:"message"`
	Urgent      bool      `json:"urgent"`
	ModelRunID  uuid.UUID `json:"model_run_id"`
}

// PredictBatchResponse is the output DTO for PredictBatch.
type PredictBatchResponse struct {
	Results []PredictionResponse `json:"results"`
}

// FromPrediction maps a domain result to the response DTO.
func FromPrediction(r model.PredictionResult) PredictionResponse {
	return PredictionResponse{
		Prediction:  r.Prediction,
		Probability: r.Probability,
		RiskTier:    r.Tier.String(),
		Message:     r.Message(),
		Urgent:      r.Tier.Urgent(),
		ModelRunID:  r.ModelRunID,
	}
}

package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/pkg/events"
)

const (
	// EventTypeTrainingCompleted is emitted when a retrain has committed new artifacts.
	EventTypeTrainingCompleted = "heartcheck.training.completed"

	// EventTypeHighRiskPredicted is emitted for predictions in the HIGH tier.
	EventTypeHighRiskPredicted = "heartcheck.prediction.high_risk"

	AggregateTrainingRun = "TrainingRun"
	AggregatePrediction  = "Prediction"
)

// TrainingCompleted tells other replicas which artifacts to load.
type TrainingCompleted struct {
	RunID       uuid.UUID `json:"run_id"`
	ModelKind   string    `json:"model_kind"`
	Accuracy    float64   `json:"accuracy"`
	Precision   float64   `json:"precision"`
	Recall      float64   `json:"recall"`
	F1Score     float64   `json:"f1_score"`
	RecordsUsed int       `json:"records_used"`
	CompletedAt time.Time `json:"completed_at"`
}

// HighRiskPredicted carries no clinical measurements, only the outcome.
type HighRiskPredicted struct {
	PredictionID uuid.UUID `json:"prediction_id"`
	ModelRunID   uuid.UUID `json:"model_run_id"`
	Probability  *float64  `json:"probability"`
	Tier         string    `json:"tier"`
	PredictedAt  time.Time `json:"predicted_at"`
}

// NewTrainingCompleted wraps the payload as a DomainEvent.
func NewTrainingCompleted(p TrainingCompleted) events.DomainEvent {
	return wrap(EventTypeTrainingCompleted, p.RunID, AggregateTrainingRun, p)
}

// NewHighRiskPredicted wraps the payload as a DomainEvent.
func NewHighRiskPredicted(p HighRiskPredicted) events.DomainEvent {
	return wrap(EventTypeHighRiskPredicted, p.PredictionID, AggregatePrediction, p)
}

func wrap(eventType string, aggregateID uuid.UUID, aggregateType string, payload any) events.DomainEvent {
	// Payload structs contain only JSON-safe fields.
	data, _ := json.Marshal(payload)
	return events.NewBaseEvent(eventType, aggregateID, aggregateType, data)
}

// DecodeTrainingCompleted extracts the payload from an envelope.
func DecodeTrainingCompleted(env events.Envelope) (TrainingCompleted, error) {
	var p TrainingCompleted
	err := json.Unmarshal(env.Payload, &p)
	return p, err
}

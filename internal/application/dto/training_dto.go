package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
)

// RetrainRequest carries an uploaded dataset. Format may be empty, in which
// case it is detected from ContentType and then Filename.
type RetrainRequest struct {
	Data        []byte `json:"data"`
	Format      string `json:"format,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	ModelKind   string `json:"model_kind,omitempty"`
	Policy      string `json:"policy,omitempty"`
}

// RetrainFromStoreRequest retrains on the records already in the store.
type RetrainFromStoreRequest struct {
	ModelKind string `json:"model_kind,omitempty"`
	Policy    string `json:"policy,omitempty"`
}

// GetTrainingRunRequest selects a run by ID; an empty ID means the latest.
type GetTrainingRunRequest struct {
	ID string `json:"id,omitempty"`
}

// MetricsResponse holds held-out evaluation metrics.
type MetricsResponse struct {
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1Score        float64 `json:"f1_score"`
	TrainSize      int     `json:"train_size"`
	TestSize       int     `json:"test_size"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalseNegatives int     `json:"false_negatives"`
}

// FromMetrics maps domain metrics to the response DTO.
func FromMetrics(m model.Metrics) MetricsResponse {
	return MetricsResponse{
		Accuracy:       m.Accuracy,
		Precision:      m.Precision,
		Recall:         m.Recall,
		F1Score:        m.F1Score,
		TrainSize:      m.TrainSize,
		TestSize:       m.TestSize,
		TruePositives:  m.Confusion.TruePositive,
		FalsePositives: m.Confusion.FalsePositive,
		TrueNegatives:  m.Confusion.TrueNegative,
		FalseNegatives: m.Confusion.FalseNegative,
	}
}

// TrainingRunResponse describes one training run.
type TrainingRunResponse struct {
	Status         string          `json:"status"`
	Message        string          `json:"message,omitempty"`
	ID             uuid.UUID       `json:"id"`
	RunStatus      string          `json:"run_status"`
	ModelKind      string          `json:"model_kind"`
	Policy         string          `json:"policy"`
	Source         string          `json:"source"`
	Failure        string          `json:"failure,omitempty"`
	Metrics        MetricsResponse `json:"metrics"`
	RecordsUsed    int             `json:"records_used"`
	ReusedEncoders bool            `json:"reused_encoders,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// FromTrainingRun maps a run aggregate to the response DTO.
func FromTrainingRun(r *model.TrainingRun) TrainingRunResponse {
	resp := TrainingRunResponse{
		Status:      "success",
		ID:          r.ID(),
		RunStatus:   string(r.Status()),
		ModelKind:   r.ModelKind().String(),
		Policy:      r.Policy().String(),
		Source:      r.Source(),
		Failure:     r.Failure(),
		Metrics:     FromMetrics(r.Metrics()),
		RecordsUsed: r.RecordsUsed(),
		StartedAt:   r.StartedAt(),
	}
	if r.Status() == model.TrainingRunFailed {
		resp.Status = "error"
	}
	if t := r.CompletedAt(); !t.IsZero() {
		resp.CompletedAt = &t
	}
	return resp
}

// FieldResponse documents one input field.
type FieldResponse struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// ModelInfoResponse reports what the service is currently serving.
type ModelInfoResponse struct {
	State       string           `json:"state"`
	RunID       *uuid.UUID       `json:"run_id,omitempty"`
	ModelKind   string           `json:"model_kind,omitempty"`
	LoadedAt    *time.Time       `json:"loaded_at,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
	Metrics     *MetricsResponse `json:"metrics,omitempty"`
	RecordCount int64            `json:"record_count"`
	Fields      []FieldResponse  `json:"fields"`
}

// SchemaFields lists the predictor fields in model column order.
func SchemaFields() []FieldResponse {
	fields := schema.Fields()
	out := make([]FieldResponse, len(fields))
	for i, f := range fields {
		out[i] = FieldResponse{Name: f.Name, Kind: f.Kind.String(), Description: f.Description}
	}
	return out
}

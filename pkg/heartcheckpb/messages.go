package heartcheckpb

import "time"

// ErrorKindKey is the trailer carrying the error kind of a failed call.
const ErrorKindKey = "x-error-kind"

// Record maps a field name to its value. A nil value is a missing measurement.
type Record map[string]*float64

type PredictRequest struct {
	Record Record `json:"record"`
}

type Prediction struct {
	Prediction  int      `json:"prediction"`
	Probability *float64 `json:"probability"`
	RiskTier    string   `json:"risk_tier"`
	Message     string   `json:"message"`
	Urgent      bool     `json:"urgent"`
	ModelRunID  string   `json:"model_run_id"`
}

type PredictBatchRequest struct {
	Records []Record `json:"records"`
}

type PredictBatchResponse struct {
	Results []Prediction `json:"results"`
}

// RetrainRequest carries the raw uploaded file; Data is base64 in JSON.
type RetrainRequest struct {
	Data        []byte `json:"data"`
	Format      string `json:"format,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	ModelKind   string `json:"model_kind,omitempty"`
	Policy      string `json:"policy,omitempty"`
}

type RetrainFromStoreRequest struct {
	ModelKind string `json:"model_kind,omitempty"`
	Policy    string `json:"policy,omitempty"`
}

type GetTrainingRunRequest struct {
	// ID is a run UUID; empty or "latest" selects the most recent run.
	ID string `json:"id,omitempty"`
}

type GetModelInfoRequest struct{}

type Metrics struct {
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

type TrainingRun struct {
	Status         string     `json:"status"`
	Message        string     `json:"message,omitempty"`
	ID             string     `json:"id"`
	RunStatus      string     `json:"run_status"`
	ModelKind      string     `json:"model_kind"`
	Policy         string     `json:"policy"`
	Source         string     `json:"source"`
	Failure        string     `json:"failure,omitempty"`
	Metrics        Metrics    `json:"metrics"`
	RecordsUsed    int        `json:"records_used"`
	ReusedEncoders bool       `json:"reused_encoders,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type Field struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

type ModelInfo struct {
	State       string     `json:"state"`
	RunID       string     `json:"run_id,omitempty"`
	ModelKind   string     `json:"model_kind,omitempty"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Metrics     *Metrics   `json:"metrics,omitempty"`
	RecordCount int64      `json:"record_count"`
	Fields      []Field    `json:"fields"`
}

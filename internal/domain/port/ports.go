package port

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/heartcheck/heartcheck/internal/domain/encoding"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	"github.com/heartcheck/heartcheck/pkg/events"
)

// TrainedModel is a fitted binary classifier over encoded feature vectors.
type TrainedModel interface {
	Kind() valueobject.ModelKind

	// InputDim is the feature vector length the model was fitted on.
	InputDim() int

	// Classify returns 0 or 1.
	Classify(x []float64) int

	// ScoreProbability returns P(class 1). ok is false for model families
	// without a probabilistic output.
	ScoreProbability(x []float64) (p float64, ok bool)
}

// ModelTrainer fits one model family.
type ModelTrainer interface {
	Kind() valueobject.ModelKind
	Fit(ctx context.Context, x *mat.Dense, y []int) (TrainedModel, error)
}

// ModelCodec serializes trained models of every supported family.
type ModelCodec interface {
	Encode(m TrainedModel) ([]byte, error)
	Decode(data []byte) (TrainedModel, error)
}

// ArtifactBundle is everything a training run deploys. The parts are only
// meaningful together.
type ArtifactBundle struct {
	RunID     uuid.UUID
	CreatedAt time.Time
	Encoders  *encoding.Store
	Model     TrainedModel
	Metrics   model.Metrics
	Report    []byte
}

// ArtifactStore persists the deployed bundle. Load and LoadEncoders return
// apperr.ErrNotFound when nothing has been committed yet.
type ArtifactStore interface {
	Commit(ctx context.Context, bundle ArtifactBundle) error
	Load(ctx context.Context) (ArtifactBundle, error)
	LoadEncoders(ctx context.Context) (*encoding.Store, error)
	Report(ctx context.Context) ([]byte, error)
}

// RecordStore is the relational table of labeled clinical records.
type RecordStore interface {
	// ReplaceAll atomically replaces the table contents.
	ReplaceAll(ctx context.Context, records []model.ClinicalRecord) (int64, error)
	LoadAll(ctx context.Context) ([]model.ClinicalRecord, error)
	Count(ctx context.Context) (int64, error)
}

// TrainingRunRepository persists training run history.
type TrainingRunRepository interface {
	Save(ctx context.Context, run *model.TrainingRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TrainingRun, error)
	FindLatest(ctx context.Context) (*model.TrainingRun, error)
	List(ctx context.Context, limit int) ([]*model.TrainingRun, error)
}

// EventPublisher publishes domain events to the messaging infrastructure.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// DatasetReader parses an uploaded dataset.
type DatasetReader interface {
	Read(ctx context.Context, r io.Reader, format valueobject.DatasetFormat) (*model.Dataset, error)
}

// ReportRenderer draws a training report image.
type ReportRenderer interface {
	RenderMetrics(m model.Metrics) ([]byte, error)
}

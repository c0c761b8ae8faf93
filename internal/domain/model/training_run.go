package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/event"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	"github.com/heartcheck/heartcheck/pkg/events"
)

// TrainingRunStatus tracks a run through the retrain pipeline.
type TrainingRunStatus string

const (
	TrainingRunRunning   TrainingRunStatus = "RUNNING"
	TrainingRunCompleted TrainingRunStatus = "COMPLETED"
	TrainingRunFailed    TrainingRunStatus = "FAILED"
)

// TrainingRun is the aggregate root for one retrain. Its ID tags every
// artifact written by the run.
type TrainingRun struct {
	startedAt   time.Time
	completedAt time.Time
	modelKind   valueobject.ModelKind
	policy      valueobject.CategoricalPolicy
	status      TrainingRunStatus
	source      string
	failure     string
	metrics     Metrics
	recordsUsed int
	id          uuid.UUID
	events.EventCollector
}

// NewTrainingRun starts a run. source describes where the data came from
// (an uploaded file name or "record-store").
func NewTrainingRun(kind valueobject.ModelKind, policy valueobject.CategoricalPolicy, source string) (*TrainingRun, error) {
	if kind.IsZero() {
		return nil, fmt.Errorf("model kind is required")
	}
	return &TrainingRun{
		id:        uuid.New(),
		modelKind: kind,
		policy:    policy,
		source:    source,
		status:    TrainingRunRunning,
		startedAt: time.Now().UTC(),
	}, nil
}

// Complete records the evaluation and emits TrainingCompleted.
func (r *TrainingRun) Complete(m Metrics, recordsUsed int) error {
	if r.status != TrainingRunRunning {
		return fmt.Errorf("training run %s is %s", r.id, r.status)
	}
	r.metrics = m
	r.recordsUsed = recordsUsed
	r.status = TrainingRunCompleted
	r.completedAt = time.Now().UTC()

	r.Record(event.NewTrainingCompleted(event.TrainingCompleted{
		RunID:       r.id,
		ModelKind:   r.modelKind.String(),
		Accuracy:    m.Accuracy,
		Precision:   m.Precision,
		Recall:      m.Recall,
		F1Score:     m.F1Score,
		RecordsUsed: recordsUsed,
		CompletedAt: r.completedAt,
	}))
	return nil
}

// Fail marks the run failed with reason.
func (r *TrainingRun) Fail(reason string) {
	r.status = TrainingRunFailed
	r.failure = reason
	r.completedAt = time.Now().UTC()
}

// ReconstructTrainingRun rebuilds a run from persisted data (no validation, no events).
func ReconstructTrainingRun(
	id uuid.UUID,
	kind valueobject.ModelKind,
	policy valueobject.CategoricalPolicy,
	status TrainingRunStatus,
	source, failure string,
	metrics Metrics,
	recordsUsed int,
	startedAt, completedAt time.Time,
) *TrainingRun {
	return &TrainingRun{
		id:          id,
		modelKind:   kind,
		policy:      policy,
		status:      status,
		source:      source,
		failure:     failure,
		metrics:     metrics,
		recordsUsed: recordsUsed,
		startedAt:   startedAt,
		completedAt: completedAt,
	}
}

func (r *TrainingRun) ID() uuid.UUID                         { return r.id }
func (r *TrainingRun) ModelKind() valueobject.ModelKind      { return r.modelKind }
func (r *TrainingRun) Policy() valueobject.CategoricalPolicy { return r.policy }
func (r *TrainingRun) Status() TrainingRunStatus             { return r.status }
func (r *TrainingRun) Source() string                        { return r.source }
func (r *TrainingRun) Failure() string                       { return r.failure }
func (r *TrainingRun) Metrics() Metrics                      { return r.metrics }
func (r *TrainingRun) RecordsUsed() int                      { return r.recordsUsed }
func (r *TrainingRun) StartedAt() time.Time                  { return r.startedAt }
func (r *TrainingRun) CompletedAt() time.Time                { return r.completedAt }

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	pg "github.com/heartcheck/heartcheck/pkg/postgres"
)

// TrainingRunRepository implements port.TrainingRunRepository.
type TrainingRunRepository struct {
	db pg.Querier
}

var _ port.TrainingRunRepository = (*TrainingRunRepository)(nil)

// NewTrainingRunRepository creates a PostgreSQL-backed run repository.
func NewTrainingRunRepository(db pg.Querier) *TrainingRunRepository {
	return &TrainingRunRepository{db: db}
}

const selectRuns = `
	SELECT id, model_kind, policy, status, source, failure,
		metrics, records_used, started_at, completed_at
	FROM training_runs
`

// Save upserts a run.
func (r *TrainingRunRepository) Save(ctx context.Context, run *model.TrainingRun) error {
	metrics, err := json.Marshal(run.Metrics())
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	var completedAt *time.Time
	if t := run.CompletedAt(); !t.IsZero() {
		completedAt = &t
	}

	query := `
		INSERT INTO training_runs (
			id, model_kind, policy, status, source, failure,
			metrics, records_used, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			failure = EXCLUDED.failure,
			metrics = EXCLUDED.metrics,
			records_used = EXCLUDED.records_used,
			completed_at = EXCLUDED.completed_at
	`
	_, err = r.db.Exec(ctx, query,
		run.ID(),
		run.ModelKind().String(),
		run.Policy().String(),
		string(run.Status()),
		run.Source(),
		run.Failure(),
		metrics,
		run.RecordsUsed(),
		run.StartedAt(),
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}
	return nil
}

// FindByID returns apperr.ErrNotFound when no run has the id.
func (r *TrainingRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TrainingRun, error) {
	return r.scanRun(r.db.QueryRow(ctx, selectRuns+" WHERE id = $1", id))
}

// FindLatest returns the most recently started run.
func (r *TrainingRunRepository) FindLatest(ctx context.Context) (*model.TrainingRun, error) {
	return r.scanRun(r.db.QueryRow(ctx, selectRuns+" ORDER BY started_at DESC LIMIT 1"))
}

// List returns up to limit runs, newest first.
func (r *TrainingRunRepository) List(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, selectRuns+" ORDER BY started_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.TrainingRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate training runs: %w", err)
	}
	return runs, nil
}

func (r *TrainingRunRepository) scanRun(row pgx.Row) (*model.TrainingRun, error) {
	var (
		id          uuid.UUID
		kindStr     string
		policyStr   string
		status      string
		source      string
		failure     string
		metricsJSON []byte
		recordsUsed int
		startedAt   time.Time
		completedAt *time.Time
	)

	err := row.Scan(&id, &kindStr, &policyStr, &status, &source, &failure,
		&metricsJSON, &recordsUsed, &startedAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan training run: %w", err)
	}

	kind, err := valueobject.ModelKindFromString(kindStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model kind: %w", err)
	}
	policy, err := valueobject.CategoricalPolicyFromString(policyStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}

	var metrics model.Metrics
	if err := json.Unmarshal(metricsJSON, &metrics); err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}

	var completed time.Time
	if completedAt != nil {
		completed = *completedAt
	}

	return model.ReconstructTrainingRun(
		id, kind, policy, model.TrainingRunStatus(status),
		source, failure, metrics, recordsUsed, startedAt, completed,
	), nil
}

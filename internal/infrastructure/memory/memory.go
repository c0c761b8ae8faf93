// Package memory provides process-local stores used when PostgreSQL is not
// configured, and by the command line tool.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
)

// RecordStore keeps the latest uploaded dataset in memory.
type RecordStore struct {
	mu      sync.RWMutex
	records []model.ClinicalRecord
}

var _ port.RecordStore = (*RecordStore)(nil)

func NewRecordStore() *RecordStore { return &RecordStore{} }

func (s *RecordStore) ReplaceAll(_ context.Context, records []model.ClinicalRecord) (int64, error) {
	cp := make([]model.ClinicalRecord, len(records))
	for i, r := range records {
		cp[i] = maps.Clone(r)
	}
	s.mu.Lock()
	s.records = cp
	s.mu.Unlock()
	return int64(len(cp)), nil
}

func (s *RecordStore) LoadAll(_ context.Context) ([]model.ClinicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ClinicalRecord, len(s.records))
	for i, r := range s.records {
		out[i] = maps.Clone(r)
	}
	return out, nil
}

func (s *RecordStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// TrainingRunRepository keeps run history in memory.
type TrainingRunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*model.TrainingRun
}

var _ port.TrainingRunRepository = (*TrainingRunRepository)(nil)

func NewTrainingRunRepository() *TrainingRunRepository {
	return &TrainingRunRepository{runs: make(map[uuid.UUID]*model.TrainingRun)}
}

func (r *TrainingRunRepository) Save(_ context.Context, run *model.TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID()] = run
	return nil
}

func (r *TrainingRunRepository) FindByID(_ context.Context, id uuid.UUID) (*model.TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return run, nil
}

func (r *TrainingRunRepository) FindLatest(ctx context.Context) (*model.TrainingRun, error) {
	runs, _ := r.List(ctx, 1)
	if len(runs) == 0 {
		return nil, apperr.ErrNotFound
	}
	return runs[0], nil
}

// List returns runs newest first.
func (r *TrainingRunRepository) List(_ context.Context, limit int) ([]*model.TrainingRun, error) {
	r.mu.RLock()
	runs := slices.Collect(maps.Values(r.runs))
	r.mu.RUnlock()

	slices.SortFunc(runs, func(a, b *model.TrainingRun) int { return b.StartedAt().Compare(a.StartedAt()) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

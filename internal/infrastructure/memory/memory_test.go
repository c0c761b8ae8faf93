package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

func TestRecordStore(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	recs := testutil.HeartDataset(8, 1).Records
	n, err := s.ReplaceAll(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	recs[0]["age"] = -1
	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, -1.0, loaded[0]["age"])

	_, err = s.ReplaceAll(ctx, recs[:3])
	require.NoError(t, err)
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTrainingRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTrainingRunRepository()

	_, err := repo.FindLatest(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	now := time.Now().UTC()
	older := model.ReconstructTrainingRun(testutil.TestRunID1, valueobject.ModelKindLogistic, valueobject.CategoricalPolicyReuse,
		model.TrainingRunCompleted, "a.csv", "", model.Metrics{}, 10, now.Add(-time.Hour), now)
	newer := model.ReconstructTrainingRun(testutil.TestRunID2, valueobject.ModelKindLogistic, valueobject.CategoricalPolicyReuse,
		model.TrainingRunCompleted, "b.csv", "", model.Metrics{}, 10, now, now)
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	latest, err := repo.FindLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestRunID2, latest.ID())

	runs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, testutil.TestRunID1, runs[1].ID())

	_, err = repo.FindByID(ctx, testutil.TestRunID1)
	assert.NoError(t, err)
}

package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

func TestNewRepositories(t *testing.T) {
	assert.NotNil(t, NewRecordStore(nil))
	assert.NotNil(t, NewTrainingRunRepository(nil))
}

func TestRecordRow(t *testing.T) {
	rec := testutil.ScenarioRecord()
	rec["chol"] = math.NaN()
	rec["target"] = 1
	delete(rec, "ca")

	row, err := recordRow(rec, schema.Columns())
	require.NoError(t, err)
	assert.Len(t, row, schema.Width+1)

	assert.Equal(t, 58.0, row[schema.Position("age")])
	assert.Equal(t, int16(1), row[schema.Position("sex")])
	assert.Nil(t, row[schema.Position("chol")])
	assert.Nil(t, row[schema.Position("ca")])
	assert.Equal(t, 0.0, row[schema.Position("oldpeak")])
	assert.Equal(t, int16(1), row[schema.Width])
}

func TestRecordRow_RejectsValuesOutsideSmallint(t *testing.T) {
	for _, v := range []float64{40000, -32769, 1.5} {
		rec := testutil.ScenarioRecord()
		rec["thal"] = v

		_, err := recordRow(rec, schema.Columns())
		assert.ErrorContains(t, err, "thal", "value %v", v)
	}

	rec := testutil.ScenarioRecord()
	rec["ca"] = math.MinInt16
	_, err := recordRow(rec, schema.Columns())
	assert.NoError(t, err)
}

func TestReplaceAll_RejectsBeforeTouchingTheTable(t *testing.T) {
	rec := testutil.ScenarioRecord()
	rec["cp"] = 70000

	// A nil pool would panic if the transaction were started.
	_, err := NewRecordStore(nil).ReplaceAll(context.Background(), []model.ClinicalRecord{testutil.ScenarioRecord(), rec})
	assert.ErrorContains(t, err, "record 1: cp value 70000")
}

package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/encoding"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

func fittedStore(t *testing.T) *encoding.Store {
	t.Helper()
	store, err := encoding.Fit(testutil.HeartDataset(200, 11))
	require.NoError(t, err)
	return store
}

func newTestEngine(t *testing.T, m port.TrainedModel) *Engine {
	t.Helper()
	e, err := NewEngine(port.ArtifactBundle{RunID: testutil.TestRunID1, Encoders: fittedStore(t), Model: m})
	require.NoError(t, err)
	return e
}

func TestEngine_HighRiskScenario(t *testing.T) {
	e := newTestEngine(t, &fixedModel{prediction: 1, probability: 0.82, hasProb: true})

	res, err := e.Predict(testutil.ScenarioRecord())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Prediction)
	require.NotNil(t, res.Probability)
	assert.InDelta(t, 0.82, *res.Probability, 1e-12)
	assert.Equal(t, "High risk! Urgent medical consultation recommended.", res.Message())
	assert.Equal(t, testutil.TestRunID1, res.ModelRunID)
}

func TestEngine_ModerateRiskScenario(t *testing.T) {
	e := newTestEngine(t, &fixedModel{prediction: 1, probability: 0.55, hasProb: true})

	res, err := e.Predict(testutil.ScenarioRecord())
	require.NoError(t, err)
	assert.Equal(t, "Moderate risk of heart disease. Consult a doctor.", res.Message())
}

func TestEngine_NoProbability(t *testing.T) {
	e := newTestEngine(t, &fixedModel{prediction: 0})

	res, err := e.Predict(testutil.ScenarioRecord())
	require.NoError(t, err)
	assert.Nil(t, res.Probability)
	assert.True(t, valueobject.RiskTierVeryLow.Equal(res.Tier))
}

// The vector the model sees at serving time equals the training row for the
// same record.
func TestEngine_TrainServeParity(t *testing.T) {
	ds := testutil.HeartDataset(120, 21)
	pre, err := NewPreprocessor(valueobject.CategoricalPolicyRefit).Preprocess(ds, nil)
	require.NoError(t, err)

	m := &fixedModel{}
	e, err := NewEngine(port.ArtifactBundle{RunID: uuid.New(), Encoders: pre.Encoders, Model: m})
	require.NoError(t, err)

	for i, rec := range ds.Records[:25] {
		_, err := e.Predict(rec)
		require.NoError(t, err)
		assert.Equal(t, pre.Features.RawRowView(i), m.seen[i])
	}
}

func TestEngine_Rejections(t *testing.T) {
	e := newTestEngine(t, &fixedModel{prediction: 1, probability: 0.9, hasProb: true})

	rec := testutil.ScenarioRecord()
	delete(rec, "ca")
	_, err := e.Predict(rec)
	assert.Equal(t, apperr.KindSchemaValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "ca")

	rec = testutil.ScenarioRecord()
	rec["thal"] = 42
	_, err = e.Predict(rec)
	assert.Equal(t, apperr.KindUnknownCategory, apperr.KindOf(err))

	rec = testutil.ScenarioRecord()
	rec["bmi"] = 31
	_, err = e.Predict(rec)
	assert.Equal(t, apperr.KindSchemaValidation, apperr.KindOf(err))
}

func TestEngine_PredictBatch(t *testing.T) {
	e := newTestEngine(t, &fixedModel{prediction: 1, probability: 0.6, hasProb: true})

	res, err := e.PredictBatch(testutil.HeartDataset(5, 3).Records)
	require.NoError(t, err)
	assert.Len(t, res, 5)

	bad := testutil.ScenarioRecord()
	delete(bad, "age")
	_, err = e.PredictBatch(append(testutil.HeartDataset(2, 3).Records, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
	assert.Equal(t, apperr.KindSchemaValidation, apperr.KindOf(err))
}

func TestNewEngine_RejectsInconsistentBundle(t *testing.T) {
	store := fittedStore(t)

	tests := []struct {
		name   string
		bundle port.ArtifactBundle
	}{
		{name: "no encoders", bundle: port.ArtifactBundle{Model: &fixedModel{}}},
		{name: "no model", bundle: port.ArtifactBundle{Encoders: store}},
		{name: "dimension mismatch", bundle: port.ArtifactBundle{Encoders: store, Model: &fixedModel{dim: 11}}},
		{name: "partial store", bundle: port.ArtifactBundle{Encoders: &encoding.Store{}, Model: &fixedModel{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.bundle)
			assert.Equal(t, apperr.KindArtifactCorrupt, apperr.KindOf(err))
		})
	}
}

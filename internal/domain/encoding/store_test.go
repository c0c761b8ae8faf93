package encoding

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

func TestFitCategory_NaturalOrder(t *testing.T) {
	enc, err := FitCategory("thal", []float64{3, 1, 2, 1, math.NaN(), 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3}, enc.Classes())

	code, err := enc.Encode(2)
	require.NoError(t, err)
	assert.Equal(t, 2, code)
}

func TestFitCategory_RejectsFractions(t *testing.T) {
	_, err := FitCategory("cp", []float64{1, 2.5})
	assert.Error(t, err)
}

func TestCategoryEncoder_RoundTrip(t *testing.T) {
	enc, err := FitCategory("ca", []float64{4, 0, 2, 1, 3, 2})
	require.NoError(t, err)

	for _, v := range []float64{0, 1, 2, 3, 4} {
		code, err := enc.Encode(v)
		require.NoError(t, err)
		back, err := enc.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}

	_, err = enc.Decode(5)
	assert.Error(t, err)
}

func TestCategoryEncoder_UnknownValue(t *testing.T) {
	enc, err := FitCategory("thal", []float64{1, 2, 3})
	require.NoError(t, err)

	for _, v := range []float64{0, 9, 1.5, math.NaN()} {
		_, err := enc.Encode(v)
		var uerr *apperr.UnknownCategoryError
		require.True(t, errors.As(err, &uerr), "value %v", v)
		assert.Equal(t, "thal", uerr.Field)
	}
}

func TestFitScaler(t *testing.T) {
	s, err := FitScaler("chol", []float64{200, math.NaN(), 300, 250, 210})
	require.NoError(t, err)

	// median of {200,210,250,300} = 230; imputed column {200,230,300,250,210}
	assert.InDelta(t, 230, s.Median, 1e-9)
	assert.InDelta(t, 238, s.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(1256), s.Std, 1e-9)

	assert.InDelta(t, (230-238)/math.Sqrt(1256), s.Apply(math.NaN()), 1e-12)
}

func TestFitScaler_ConstantColumnClamped(t *testing.T) {
	s, err := FitScaler("fbs", []float64{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, MinStd, s.Std)
	assert.Zero(t, s.Apply(5))
}

func TestFitScaler_AllMissing(t *testing.T) {
	_, err := FitScaler("age", []float64{math.NaN(), math.NaN()})
	assert.Equal(t, apperr.KindInsufficientData, apperr.KindOf(err))
}

func TestFit_Deterministic(t *testing.T) {
	ds := testutil.HeartDataset(120, 3)

	a, err := Fit(ds)
	require.NoError(t, err)
	b, err := Fit(ds)
	require.NoError(t, err)

	ja, err := a.Marshal()
	require.NoError(t, err)
	jb, err := b.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestStore_TransformSchemaOrder(t *testing.T) {
	ds := testutil.HeartDataset(80, 5)
	store, err := Fit(ds)
	require.NoError(t, err)

	rec := testutil.ScenarioRecord()
	vec, err := store.Transform(rec)
	require.NoError(t, err)
	require.Len(t, vec, schema.Width)

	ageScaler, _ := store.Scaler("age")
	assert.InDelta(t, ageScaler.Apply(58), vec[schema.Position("age")], 1e-12)

	thalCode, err := store.Encode("thal", 1)
	require.NoError(t, err)
	assert.Equal(t, float64(thalCode), vec[schema.Position("thal")])
}

func TestStore_TransformUnknownCategory(t *testing.T) {
	store, err := Fit(testutil.HeartDataset(80, 5))
	require.NoError(t, err)

	rec := testutil.ScenarioRecord()
	rec["thal"] = 9
	_, err = store.Transform(rec)
	assert.Equal(t, apperr.KindUnknownCategory, apperr.KindOf(err))
}

func TestStore_PersistRoundTrip(t *testing.T) {
	store, err := Fit(testutil.HeartDataset(100, 9))
	require.NoError(t, err)

	data, err := store.Marshal()
	require.NoError(t, err)
	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	for _, rec := range testutil.HeartDataset(30, 10).Records {
		want, errWant := store.Transform(rec)
		got, errGot := loaded.Transform(rec)
		if errWant != nil {
			assert.Equal(t, apperr.KindOf(errWant), apperr.KindOf(errGot))
			continue
		}
		require.NoError(t, errGot)
		assert.Equal(t, want, got)
	}

	for _, field := range schema.CategoricalFields() {
		enc, _ := store.Category(field)
		for code := range enc.Classes() {
			v, err := loaded.Decode(field, code)
			require.NoError(t, err)
			back, err := loaded.Encode(field, v)
			require.NoError(t, err)
			assert.Equal(t, code, back)
		}
	}
}

func TestUnmarshal_PartialStoreIsCorrupt(t *testing.T) {
	tests := map[string]string{
		"not json":         `{`,
		"wrong version":    `{"version":99}`,
		"missing scalers":  `{"version":1,"categorical":{"sex":[0,1],"cp":[0,1],"fbs":[0,1],"restecg":[0],"exang":[0,1],"slope":[0],"ca":[0],"thal":[1]}}`,
		"missing encoder":  `{"version":1,"numeric":{"age":{"median":1,"mean":1,"std":1}}}`,
		"unsorted classes": `{"version":1,"categorical":{"sex":[1,0]}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal([]byte(doc))
			assert.Equal(t, apperr.KindArtifactCorrupt, apperr.KindOf(err))
		})
	}
}

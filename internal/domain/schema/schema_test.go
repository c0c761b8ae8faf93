package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
)

func TestPredictorOrder(t *testing.T) {
	assert.Equal(t, []string{
		"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
		"thalach", "exang", "oldpeak", "slope", "ca", "thal",
	}, Predictors())
	assert.Equal(t, 13, Width)
	assert.Equal(t, append(Predictors(), "target"), Columns())
}

func TestFieldPartitions(t *testing.T) {
	assert.Equal(t, []string{"age", "trestbps", "chol", "thalach", "oldpeak"}, NumericFields())
	assert.Equal(t, []string{"sex", "cp", "fbs", "restecg", "exang", "slope", "ca", "thal"}, CategoricalFields())
	assert.Len(t, NumericFields(), Width-len(CategoricalFields()))
}

func TestFieldsReturnsCopy(t *testing.T) {
	f := Fields()
	f[0].Name = "mutated"
	assert.Equal(t, "age", Predictors()[0])
}

func TestLookupAndPosition(t *testing.T) {
	f, ok := Lookup("oldpeak")
	require.True(t, ok)
	assert.Equal(t, Numeric, f.Kind)
	assert.Equal(t, 9, Position("oldpeak"))
	assert.Equal(t, -1, Position("target"))

	_, ok = Lookup("target")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	withoutThal := Predictors()[:Width-1]

	tests := []struct {
		name         string
		names        []string
		requireLabel bool
		missing      []string
		extra        []string
	}{
		{name: "complete predictors", names: Predictors()},
		{name: "complete with label", names: Columns(), requireLabel: true},
		{name: "label optional when not required", names: Columns()},
		{name: "missing label", names: Predictors(), requireLabel: true, missing: []string{"target"}},
		{name: "missing thal", names: append(withoutThal, Label), requireLabel: true, missing: []string{"thal"}},
		{name: "extra column", names: append(Predictors(), "notes", "id"), extra: []string{"id", "notes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.names, tt.requireLabel)
			if tt.missing == nil && tt.extra == nil {
				assert.NoError(t, err)
				return
			}
			var verr *apperr.SchemaValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.missing, verr.Missing)
			assert.Equal(t, tt.extra, verr.Extra)
		})
	}
}

func TestValidate_MissingThalMessage(t *testing.T) {
	names := append(Predictors()[:Width-1], Label)
	err := Validate(names, true)
	require.Error(t, err)
	assert.Equal(t, "Missing required columns: thal", err.Error())
}

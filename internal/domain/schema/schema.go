// Package schema defines the fixed clinical feature schema: the ordered list
// of predictor fields, which of them are numeric or categorical, and the label.
// It is a compile-time constant; nothing mutates it at runtime.
package schema

import (
	"slices"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
)

// Label is the binary outcome column (1 = heart disease).
const Label = "target"

// FieldKind distinguishes scaled numeric fields from integer-coded categories.
type FieldKind int

const (
	Numeric FieldKind = iota + 1
	Categorical
)

func (k FieldKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Field describes one predictor.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
}

var fields = [...]Field{
	{Name: "age", Kind: Numeric, Description: "age in years"},
	{Name: "sex", Kind: Categorical, Description: "1 = male, 0 = female"},
	{Name: "cp", Kind: Categorical, Description: "chest pain type"},
	{Name: "trestbps", Kind: Numeric, Description: "resting blood pressure (mm Hg)"},
	{Name: "chol", Kind: Numeric, Description: "serum cholesterol (mg/dl)"},
	{Name: "fbs", Kind: Categorical, Description: "fasting blood sugar > 120 mg/dl"},
	{Name: "restecg", Kind: Categorical, Description: "resting electrocardiographic result"},
	{Name: "thalach", Kind: Numeric, Description: "maximum heart rate achieved"},
	{Name: "exang", Kind: Categorical, Description: "exercise induced angina"},
	{Name: "oldpeak", Kind: Numeric, Description: "ST depression induced by exercise"},
	{Name: "slope", Kind: Categorical, Description: "slope of the peak exercise ST segment"},
	{Name: "ca", Kind: Categorical, Description: "major vessels coloured by fluoroscopy"},
	{Name: "thal", Kind: Categorical, Description: "thalassemia"},
}

var index = func() map[string]int {
	m := make(map[string]int, len(fields))
	for i, f := range fields {
		m[f.Name] = i
	}
	return m
}()

// Width is the number of predictor fields.
const Width = len(fields)

// Fields returns a copy of the predictor descriptors in schema order.
func Fields() []Field {
	return slices.Clone(fields[:])
}

// Predictors returns the predictor names in schema order.
func Predictors() []string {
	out := make([]string, 0, Width)
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}

// Columns returns the predictor names followed by the label, the column order
// of the record store.
func Columns() []string {
	return append(Predictors(), Label)
}

// NumericFields returns the numeric predictor names in schema order.
func NumericFields() []string { return ofKind(Numeric) }

// CategoricalFields returns the categorical predictor names in schema order.
func CategoricalFields() []string { return ofKind(Categorical) }

func ofKind(k FieldKind) []string {
	var out []string
	for _, f := range fields {
		if f.Kind == k {
			out = append(out, f.Name)
		}
	}
	return out
}

// Lookup returns the descriptor for name.
func Lookup(name string) (Field, bool) {
	i, ok := index[name]
	if !ok {
		return Field{}, false
	}
	return fields[i], true
}

// Position returns the column index of a predictor, or -1.
func Position(name string) int {
	if i, ok := index[name]; ok {
		return i
	}
	return -1
}

// Validate checks a set of field names against the schema. Every predictor
// must be present, the label must be present when requireLabel is set, and no
// other names are allowed. Duplicate names are tolerated.
func Validate(names []string, requireLabel bool) error {
	seen := make(map[string]bool, len(names))
	verr := &apperr.SchemaValidationError{}

	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if _, ok := index[n]; ok {
			continue
		}
		if n == Label {
			continue
		}
		verr.Extra = append(verr.Extra, n)
	}

	for _, f := range fields {
		if !seen[f.Name] {
			verr.Missing = append(verr.Missing, f.Name)
		}
	}
	if requireLabel && !seen[Label] {
		verr.Missing = append(verr.Missing, Label)
	}

	if verr.Empty() {
		return nil
	}
	slices.Sort(verr.Extra)
	return verr
}

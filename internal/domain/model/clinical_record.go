package model

import (
	"math"
	"slices"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
)

// ClinicalRecord is one patient's measurements keyed by field name. A NaN value
// is a missing measurement; numeric gaps are imputed, categorical gaps are invalid.
type ClinicalRecord map[string]float64

// Fields returns the record's field names, sorted.
func (r ClinicalRecord) Fields() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Label returns the target class.
func (r ClinicalRecord) Label() (int, bool) {
	v, ok := r[schema.Label]
	if !ok || (v != 0 && v != 1) {
		return 0, false
	}
	return int(v), true
}

// Predictors returns a copy of the record without the label.
func (r ClinicalRecord) Predictors() ClinicalRecord {
	out := make(ClinicalRecord, schema.Width)
	for _, name := range schema.Predictors() {
		if v, ok := r[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Validate checks field names against the schema and then the values:
// categorical fields must hold integers that fit a SMALLINT column, numeric
// fields must not be infinite, and the label (when required) must be 0 or 1.
func (r ClinicalRecord) Validate(requireLabel bool) error {
	if err := schema.Validate(r.Fields(), requireLabel); err != nil {
		return err
	}
	if invalid := r.invalidFields(requireLabel); len(invalid) > 0 {
		return &apperr.SchemaValidationError{Invalid: invalid}
	}
	return nil
}

func (r ClinicalRecord) invalidFields(requireLabel bool) []string {
	var invalid []string
	for _, f := range schema.Fields() {
		v := r[f.Name]
		switch f.Kind {
		case schema.Categorical:
			if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v < math.MinInt16 || v > math.MaxInt16 {
				invalid = append(invalid, f.Name)
			}
		case schema.Numeric:
			if math.IsInf(v, 0) {
				invalid = append(invalid, f.Name)
			}
		}
	}
	if requireLabel {
		if _, ok := r.Label(); !ok {
			invalid = append(invalid, schema.Label)
		}
	}
	return invalid
}

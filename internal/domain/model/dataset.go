package model

import (
	"math"
	"slices"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
)

// Dataset is a parsed, not yet validated table of clinical records.
type Dataset struct {
	Columns []string
	Records []ClinicalRecord
}

// NewDataset builds a Dataset. Columns listed but absent from a record are
// treated as missing values.
func NewDataset(columns []string, records []ClinicalRecord) *Dataset {
	return &Dataset{Columns: slices.Clone(columns), Records: records}
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Validate checks the column header against the schema first, so a file with
// a missing column is reported by name before any value is examined. Value
// problems are aggregated per column across all rows.
func (d *Dataset) Validate(requireLabel bool) error {
	if err := schema.Validate(d.Columns, requireLabel); err != nil {
		return err
	}
	if len(d.Records) == 0 {
		return &apperr.InsufficientDataError{Reason: "dataset has no rows"}
	}

	bad := map[string]bool{}
	for _, rec := range d.Records {
		for _, f := range rec.withGaps().invalidFields(requireLabel) {
			bad[f] = true
		}
	}
	if len(bad) == 0 {
		return nil
	}

	verr := &apperr.SchemaValidationError{}
	for _, name := range schema.Columns() {
		if bad[name] {
			verr.Invalid = append(verr.Invalid, name)
		}
	}
	return verr
}

// withGaps fills absent predictors with NaN so they validate as missing values.
func (r ClinicalRecord) withGaps() ClinicalRecord {
	out := make(ClinicalRecord, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	for _, name := range schema.Predictors() {
		if _, ok := out[name]; !ok {
			out[name] = math.NaN()
		}
	}
	return out
}

// Labels returns the label column. Call Validate first.
func (d *Dataset) Labels() []int {
	out := make([]int, len(d.Records))
	for i, r := range d.Records {
		out[i], _ = r.Label()
	}
	return out
}

// Column returns one field across all records, NaN where absent.
func (d *Dataset) Column(name string) []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		v, ok := r[name]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// Package dataset parses uploaded training files into model.Dataset.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
)

// Cells that mean "no measurement". The public heart datasets use "?".
var missingMarkers = map[string]bool{"": true, "?": true, "na": true, "nan": true, "null": true, "none": true}

func known(column string) bool {
	return column == schema.Label || schema.Position(column) >= 0
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// parseCell returns NaN for missing markers and ok=false for text that is
// neither a number nor a missing marker.
func parseCell(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if missingMarkers[strings.ToLower(cell)] {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// tableToDataset converts a header plus string rows. Only schema columns are
// parsed; unknown columns stay in the header so validation can name them.
func tableToDataset(header []string, rows [][]string) (*model.Dataset, error) {
	header = normalizeHeader(header)
	records := make([]model.ClinicalRecord, 0, len(rows))
	invalid := map[string]bool{}

	for _, row := range rows {
		if blank(row) {
			continue
		}
		rec := make(model.ClinicalRecord, len(header))
		for i, col := range header {
			if !known(col) {
				continue
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			v, ok := parseCell(cell)
			if !ok {
				invalid[col] = true
				continue
			}
			rec[col] = v
		}
		records = append(records, rec)
	}

	if len(invalid) > 0 {
		verr := &apperr.SchemaValidationError{}
		for _, c := range schema.Columns() {
			if invalid[c] {
				verr.Invalid = append(verr.Invalid, c)
			}
		}
		return nil, verr
	}
	return model.NewDataset(header, records), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

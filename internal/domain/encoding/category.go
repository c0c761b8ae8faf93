package encoding

import (
	"fmt"
	"math"
	"slices"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
)

// CategoryEncoder maps the observed values of one categorical field to dense
// integer codes. Codes follow the natural numeric order of the values, so
// fitting identical data always yields identical codes.
type CategoryEncoder struct {
	field   string
	classes []int64
	codes   map[int64]int
}

// FitCategory builds an encoder over the distinct non-missing values.
func FitCategory(field string, values []float64) (*CategoryEncoder, error) {
	seen := make(map[int64]struct{})
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		c, ok := asClass(v)
		if !ok {
			return nil, fmt.Errorf("field %s: value %v is not an integer category", field, v)
		}
		seen[c] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, &apperr.InsufficientDataError{Reason: "no observed values for " + field}
	}

	classes := make([]int64, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	slices.Sort(classes)
	return newCategoryEncoder(field, classes)
}

func newCategoryEncoder(field string, classes []int64) (*CategoryEncoder, error) {
	codes := make(map[int64]int, len(classes))
	for i, c := range classes {
		if i > 0 && classes[i-1] >= c {
			return nil, fmt.Errorf("field %s: classes are not strictly increasing", field)
		}
		codes[c] = i
	}
	return &CategoryEncoder{field: field, classes: classes, codes: codes}, nil
}

func asClass(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}

// Encode returns the code for v or UnknownCategoryError.
func (e *CategoryEncoder) Encode(v float64) (int, error) {
	c, ok := asClass(v)
	if ok {
		if code, found := e.codes[c]; found {
			return code, nil
		}
	}
	return 0, &apperr.UnknownCategoryError{Field: e.field, Value: v}
}

// Decode is the inverse of Encode.
func (e *CategoryEncoder) Decode(code int) (float64, error) {
	if code < 0 || code >= len(e.classes) {
		return 0, fmt.Errorf("field %s: code %d out of range [0,%d)", e.field, code, len(e.classes))
	}
	return float64(e.classes[code]), nil
}

// Classes returns the fitted values in code order.
func (e *CategoryEncoder) Classes() []int64 { return slices.Clone(e.classes) }

// Field returns the encoded field's name.
func (e *CategoryEncoder) Field() string { return e.field }

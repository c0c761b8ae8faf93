package encoding

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
)

// MinStd keeps constant columns from dividing by zero.
const MinStd = 1e-8

// Scaler imputes missing values with the training median and standardizes
// to zero mean and unit population variance.
type Scaler struct {
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// FitScaler computes the median over present values, then mean and population
// standard deviation over the imputed column.
func FitScaler(field string, values []float64) (Scaler, error) {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsInf(v, 0) {
			return Scaler{}, fmt.Errorf("field %s: infinite value", field)
		}
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return Scaler{}, &apperr.InsufficientDataError{Reason: "no observed values for " + field}
	}

	med := median(present)
	imputed := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			v = med
		}
		imputed[i] = v
	}

	mean, std := stat.PopMeanStdDev(imputed, nil)
	return Scaler{Median: med, Mean: mean, Std: max(std, MinStd)}, nil
}

// median averages the two middle values for an even count.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Apply imputes and standardizes one value.
func (s Scaler) Apply(v float64) float64 {
	if math.IsNaN(v) {
		v = s.Median
	}
	return (v - s.Mean) / s.Std
}

func (s Scaler) valid() bool {
	return !math.IsNaN(s.Median) && !math.IsNaN(s.Mean) && s.Std >= MinStd && !math.IsInf(s.Std, 0)
}

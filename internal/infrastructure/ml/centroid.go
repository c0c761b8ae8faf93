package ml

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// NearestCentroid assigns the class whose training mean is closest. It has
// no probabilistic output.
type NearestCentroid struct {
	Negative []float64
	Positive []float64
}

func (m *NearestCentroid) Kind() valueobject.ModelKind { return valueobject.ModelKindNearestCentroid }
func (m *NearestCentroid) InputDim() int               { return len(m.Negative) }

func (m *NearestCentroid) ScoreProbability([]float64) (float64, bool) { return 0, false }

// Classify breaks ties toward the negative class.
func (m *NearestCentroid) Classify(x []float64) int {
	if floats.Distance(x, m.Positive, 2) < floats.Distance(x, m.Negative, 2) {
		return 1
	}
	return 0
}

// CentroidTrainer fits NearestCentroid.
type CentroidTrainer struct{}

func (CentroidTrainer) Kind() valueobject.ModelKind { return valueobject.ModelKindNearestCentroid }

func (CentroidTrainer) Fit(_ context.Context, x *mat.Dense, y []int) (port.TrainedModel, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("centroid: %d rows for %d labels", rows, len(y))
	}

	sums := [2][]float64{make([]float64, cols), make([]float64, cols)}
	var counts [2]int
	for i := 0; i < rows; i++ {
		c := y[i]
		if c != 0 && c != 1 {
			return nil, fmt.Errorf("centroid: label %d at row %d", c, i)
		}
		floats.Add(sums[c], x.RawRowView(i))
		counts[c]++
	}
	for c := range sums {
		if counts[c] == 0 {
			return nil, fmt.Errorf("centroid: no samples of class %d", c)
		}
		floats.Scale(1/float64(counts[c]), sums[c])
	}

	return &NearestCentroid{Negative: sums[0], Positive: sums[1]}, nil
}

package service

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// fixedModel returns the same answer for every input.
type fixedModel struct {
	prediction  int
	probability float64
	hasProb     bool
	dim         int
	seen        [][]float64
}

func (m *fixedModel) Kind() valueobject.ModelKind { return valueobject.ModelKindLogistic }

func (m *fixedModel) InputDim() int {
	if m.dim == 0 {
		return schema.Width
	}
	return m.dim
}

func (m *fixedModel) Classify(x []float64) int {
	m.seen = append(m.seen, append([]float64(nil), x...))
	return m.prediction
}

func (m *fixedModel) ScoreProbability([]float64) (float64, bool) {
	return m.probability, m.hasProb
}

// thresholdModel predicts 1 when feature col exceeds cut.
type thresholdModel struct {
	col int
	cut float64
}

func (m *thresholdModel) Kind() valueobject.ModelKind { return valueobject.ModelKindNearestCentroid }
func (m *thresholdModel) InputDim() int               { return schema.Width }
func (m *thresholdModel) Classify(x []float64) int {
	if x[m.col] > m.cut {
		return 1
	}
	return 0
}
func (m *thresholdModel) ScoreProbability([]float64) (float64, bool) { return 0, false }

// thresholdFitter learns the mean of one column as the cut.
type thresholdFitter struct {
	col     int
	fitRows int
}

func (f *thresholdFitter) Kind() valueobject.ModelKind { return valueobject.ModelKindNearestCentroid }

func (f *thresholdFitter) Fit(_ context.Context, x *mat.Dense, _ []int) (port.TrainedModel, error) {
	rows, _ := x.Dims()
	f.fitRows = rows
	sum := 0.0
	for i := 0; i < rows; i++ {
		sum += x.At(i, f.col)
	}
	return &thresholdModel{col: f.col, cut: sum / float64(rows)}, nil
}

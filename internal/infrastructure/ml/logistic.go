package ml

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// LogisticRegression is an L2-regularized linear classifier. Fields are
// exported for gob.
type LogisticRegression struct {
	Weights []float64
	Bias    float64
}

func (m *LogisticRegression) Kind() valueobject.ModelKind { return valueobject.ModelKindLogistic }
func (m *LogisticRegression) InputDim() int               { return len(m.Weights) }

// ScoreProbability returns the sigmoid of the linear score.
func (m *LogisticRegression) ScoreProbability(x []float64) (float64, bool) {
	return sigmoid(floats.Dot(m.Weights, x) + m.Bias), true
}

// Classify thresholds the probability at one half.
func (m *LogisticRegression) Classify(x []float64) int {
	if p, _ := m.ScoreProbability(x); p > 0.5 {
		return 1
	}
	return 0
}

// LogisticTrainer fits LogisticRegression with L-BFGS from zero weights, so
// identical inputs always give identical coefficients.
type LogisticTrainer struct {
	Lambda        float64
	MaxIterations int
}

// NewLogisticTrainer returns a trainer with conservative defaults.
func NewLogisticTrainer() *LogisticTrainer {
	return &LogisticTrainer{Lambda: 1e-2, MaxIterations: 500}
}

func (t *LogisticTrainer) Kind() valueobject.ModelKind { return valueobject.ModelKindLogistic }

// Fit minimizes mean log-loss plus (Lambda/2)*|w|^2. The bias is not penalized.
func (t *LogisticTrainer) Fit(ctx context.Context, x *mat.Dense, y []int) (port.TrainedModel, error) {
	rows, cols := x.Dims()
	if rows == 0 || rows != len(y) {
		return nil, fmt.Errorf("logistic: %d rows for %d labels", rows, len(y))
	}

	n := float64(rows)
	z := make([]float64, rows)

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			w, b := theta[:cols], theta[cols]
			loss := 0.0
			for i := 0; i < rows; i++ {
				s := floats.Dot(w, x.RawRowView(i)) + b
				loss += softplus(s) - float64(y[i])*s
			}
			return loss/n + 0.5*t.Lambda*floats.Dot(w, w)
		},
		Grad: func(grad, theta []float64) {
			w, b := theta[:cols], theta[cols]
			for i := 0; i < rows; i++ {
				z[i] = sigmoid(floats.Dot(w, x.RawRowView(i))+b) - float64(y[i])
			}
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < rows; i++ {
				floats.AddScaled(grad[:cols], z[i]/n, x.RawRowView(i))
				grad[cols] += z[i] / n
			}
			floats.AddScaled(grad[:cols], t.Lambda, w)
		},
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   t.MaxIterations,
	}

	// An iteration-limit status still leaves a usable optimum estimate.
	result, err := optimize.Minimize(problem, make([]float64, cols+1), settings, &optimize.LBFGS{})
	if result == nil || floats.HasNaN(result.X) {
		return nil, errors.Join(errors.New("logistic: optimization diverged"), err)
	}

	return &LogisticRegression{
		Weights: append([]float64(nil), result.X[:cols]...),
		Bias:    result.X[cols],
	}, nil
}

func sigmoid(s float64) float64 {
	if s >= 0 {
		return 1 / (1 + math.Exp(-s))
	}
	e := math.Exp(s)
	return e / (1 + e)
}

// softplus is log(1+e^s) without overflow.
func softplus(s float64) float64 {
	if s > 0 {
		return s + math.Log1p(math.Exp(-s))
	}
	return math.Log1p(math.Exp(s))
}

package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
)

const (
	// DefaultTestRatio is the held-out share of every retrain.
	DefaultTestRatio = 0.2

	// DefaultSplitSeed fixes the shuffle so identical data yields identical metrics.
	DefaultSplitSeed int64 = 42

	minRecords = 5
)

// SplitIndices shuffles 0..n-1 with seed and returns the train and test
// partitions. The test partition holds ceil(n*ratio) rows.
func SplitIndices(n int, ratio float64, seed int64) (train, test []int, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v out of range (0,1)", ratio)
	}
	if n < minRecords {
		return nil, nil, &apperr.InsufficientDataError{Reason: fmt.Sprintf("need at least %d records, got %d", minRecords, n)}
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testN := int(math.Ceil(float64(n) * ratio))
	return perm[testN:], perm[:testN], nil
}

// Trainer fits a model on the training partition and scores it on the rest.
type Trainer struct {
	fitter    port.ModelTrainer
	testRatio float64
	seed      int64
}

// NewTrainer creates a Trainer with the default split.
func NewTrainer(fitter port.ModelTrainer) *Trainer {
	return &Trainer{fitter: fitter, testRatio: DefaultTestRatio, seed: DefaultSplitSeed}
}

// Fitter returns the underlying model trainer.
func (t *Trainer) Fitter() port.ModelTrainer { return t.fitter }

// Train splits, fits and evaluates.
func (t *Trainer) Train(ctx context.Context, x *mat.Dense, y []int) (port.TrainedModel, model.Metrics, error) {
	rows, _ := x.Dims()
	if rows != len(y) {
		return nil, model.Metrics{}, fmt.Errorf("feature rows %d != labels %d", rows, len(y))
	}

	trainIdx, testIdx, err := SplitIndices(rows, t.testRatio, t.seed)
	if err != nil {
		return nil, model.Metrics{}, err
	}

	xTrain, yTrain := subset(x, y, trainIdx)
	if !bothClasses(yTrain) {
		return nil, model.Metrics{}, &apperr.InsufficientDataError{Reason: "training partition contains a single class"}
	}

	m, err := t.fitter.Fit(ctx, xTrain, yTrain)
	if err != nil {
		return nil, model.Metrics{}, fmt.Errorf("fit %s: %w", t.fitter.Kind(), err)
	}

	xTest, yTest := subset(x, y, testIdx)
	metrics := Evaluate(m, xTest, yTest)
	metrics.TrainSize = len(trainIdx)
	return m, metrics, nil
}

// Evaluate scores m on a labeled matrix against the positive class.
func Evaluate(m port.TrainedModel, x *mat.Dense, y []int) model.Metrics {
	var c model.ConfusionMatrix
	for i := range y {
		c.Add(y[i], m.Classify(x.RawRowView(i)))
	}
	return model.MetricsFromConfusion(c)
}

func subset(x *mat.Dense, y []int, idx []int) (*mat.Dense, []int) {
	_, cols := x.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	labels := make([]int, len(idx))
	for i, src := range idx {
		out.SetRow(i, x.RawRowView(src))
		labels[i] = y[src]
	}
	return out, labels
}

func bothClasses(y []int) bool {
	var pos, neg bool
	for _, v := range y {
		if v == 1 {
			pos = true
		} else {
			neg = true
		}
	}
	return pos && neg
}

package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// separable returns points whose class is the sign of the first feature.
func separable() (*mat.Dense, []int) {
	x := mat.NewDense(40, 3, nil)
	y := make([]int, 40)
	for i := 0; i < 40; i++ {
		v := float64(i-20) / 5
		if i >= 20 {
			v += 0.5
			y[i] = 1
		}
		x.SetRow(i, []float64{v, float64(i % 3), 1})
	}
	return x, y
}

func accuracy(m port.TrainedModel, x *mat.Dense, y []int) float64 {
	ok := 0
	for i := range y {
		if m.Classify(x.RawRowView(i)) == y[i] {
			ok++
		}
	}
	return float64(ok) / float64(len(y))
}

func TestLogisticTrainer_LearnsSeparableData(t *testing.T) {
	x, y := separable()
	m, err := NewLogisticTrainer().Fit(context.Background(), x, y)
	require.NoError(t, err)

	assert.Equal(t, 3, m.InputDim())
	assert.GreaterOrEqual(t, accuracy(m, x, y), 0.95)

	p, ok := m.ScoreProbability([]float64{4, 0, 1})
	require.True(t, ok)
	assert.Greater(t, p, 0.5)
	assert.Less(t, p, 1.0)

	p, _ = m.ScoreProbability([]float64{-4, 0, 1})
	assert.Less(t, p, 0.5)
	assert.Greater(t, p, 0.0)
}

func TestLogisticTrainer_Deterministic(t *testing.T) {
	x, y := separable()
	a, err := NewLogisticTrainer().Fit(context.Background(), x, y)
	require.NoError(t, err)
	b, err := NewLogisticTrainer().Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLogisticTrainer_Canceled(t *testing.T) {
	x, y := separable()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLogisticTrainer().Fit(ctx, x, y)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSigmoidStable(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-15)
	assert.Equal(t, 1.0, sigmoid(1000))
	assert.Equal(t, 0.0, sigmoid(-1000))
	assert.InDelta(t, 1000, softplus(1000), 1e-9)
	assert.InDelta(t, 0, softplus(-1000), 1e-9)
}

func TestCentroidTrainer(t *testing.T) {
	x, y := separable()
	m, err := CentroidTrainer{}.Fit(context.Background(), x, y)
	require.NoError(t, err)

	_, ok := m.ScoreProbability(x.RawRowView(0))
	assert.False(t, ok)
	assert.GreaterOrEqual(t, accuracy(m, x, y), 0.8)
	assert.Equal(t, 0, m.Classify([]float64{-3, 1, 1}))
	assert.Equal(t, 1, m.Classify([]float64{3, 1, 1}))

	_, err = CentroidTrainer{}.Fit(context.Background(), mat.NewDense(2, 3, nil), []int{0, 0})
	assert.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	x, y := separable()
	codec := NewCodec()

	for _, trainer := range []port.ModelTrainer{NewLogisticTrainer(), CentroidTrainer{}} {
		t.Run(trainer.Kind().String(), func(t *testing.T) {
			m, err := trainer.Fit(context.Background(), x, y)
			require.NoError(t, err)

			data, err := codec.Encode(m)
			require.NoError(t, err)
			back, err := codec.Decode(data)
			require.NoError(t, err)

			assert.True(t, m.Kind().Equal(back.Kind()))
			for i := range y {
				row := x.RawRowView(i)
				assert.Equal(t, m.Classify(row), back.Classify(row))
				p1, ok1 := m.ScoreProbability(row)
				p2, ok2 := back.ScoreProbability(row)
				assert.Equal(t, ok1, ok2)
				assert.Equal(t, p1, p2)
			}
		})
	}
}

func TestCodec_Corrupt(t *testing.T) {
	_, err := NewCodec().Decode([]byte("definitely not gob"))
	assert.Equal(t, apperr.KindArtifactCorrupt, apperr.KindOf(err))

	data, err := NewCodec().Encode(&LogisticRegression{Weights: []float64{1, 2}})
	require.NoError(t, err)
	_, err = NewCodec().Decode(data[:len(data)/2])
	assert.Equal(t, apperr.KindArtifactCorrupt, apperr.KindOf(err))
}

func TestNewTrainer(t *testing.T) {
	tr, err := NewTrainer(valueobject.ModelKindLogistic)
	require.NoError(t, err)
	assert.True(t, valueobject.ModelKindLogistic.Equal(tr.Kind()))

	tr, err = NewTrainer(valueobject.ModelKindNearestCentroid)
	require.NoError(t, err)
	assert.True(t, valueobject.ModelKindNearestCentroid.Equal(tr.Kind()))

	_, err = NewTrainer(valueobject.ModelKind{})
	assert.Error(t, err)
}

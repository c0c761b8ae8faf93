package report

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/model"
)

func TestRenderMetrics(t *testing.T) {
	data, err := NewRenderer().RenderMetrics(model.Metrics{
		Accuracy: 0.84, Precision: 0.81, Recall: 0.88, F1Score: 0.84, TrainSize: 242, TestSize: 61,
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 100)
	assert.Greater(t, img.Bounds().Dy(), 100)
}

func TestRenderMetrics_ZeroMetrics(t *testing.T) {
	data, err := NewRenderer().RenderMetrics(model.Metrics{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

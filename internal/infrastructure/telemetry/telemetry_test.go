package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	in, err := New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ctx := context.Background()
	in.Prediction(ctx, "HIGH")
	in.Prediction(ctx, "HIGH")
	in.Prediction(ctx, "LOW")
	in.PredictionError(ctx, "schema_validation")
	in.Retrain(ctx, "completed", 1500*time.Millisecond)

	got := collect(t, reader)

	preds, ok := got["heartcheck.predictions"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range preds.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, preds.DataPoints, 2)

	hist, ok := got["heartcheck.retrain.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 1e-9)

	assert.Contains(t, got, "heartcheck.prediction.errors")
	assert.Contains(t, got, "heartcheck.retrains")
}

func TestNoop(t *testing.T) {
	in := Noop()
	in.Prediction(context.Background(), "LOW")
	in.Retrain(context.Background(), "completed", time.Second)
}

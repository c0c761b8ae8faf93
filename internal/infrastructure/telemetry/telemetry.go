// Package telemetry holds the service's OpenTelemetry instruments.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/heartcheck/heartcheck"

// Instruments records prediction and training activity.
type Instruments struct {
	predictions      metric.Int64Counter
	predictionErrors metric.Int64Counter
	retrains         metric.Int64Counter
	retrainDuration  metric.Float64Histogram
}

// New creates the instruments on mp.
func New(mp metric.MeterProvider) (*Instruments, error) {
	meter := mp.Meter(instrumentationName)

	predictions, err := meter.Int64Counter("heartcheck.predictions",
		metric.WithDescription("Predictions served, by risk tier"))
	if err != nil {
		return nil, fmt.Errorf("create predictions counter: %w", err)
	}
	predictionErrors, err := meter.Int64Counter("heartcheck.prediction.errors",
		metric.WithDescription("Rejected prediction requests, by error kind"))
	if err != nil {
		return nil, fmt.Errorf("create prediction errors counter: %w", err)
	}
	retrains, err := meter.Int64Counter("heartcheck.retrains",
		metric.WithDescription("Retrain attempts, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("create retrains counter: %w", err)
	}
	retrainDuration, err := meter.Float64Histogram("heartcheck.retrain.duration",
		metric.WithDescription("Wall time of the retrain pipeline"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create retrain duration histogram: %w", err)
	}

	return &Instruments{
		predictions:      predictions,
		predictionErrors: predictionErrors,
		retrains:         retrains,
		retrainDuration:  retrainDuration,
	}, nil
}

// Noop returns instruments that record nothing.
func Noop() *Instruments {
	in, _ := New(noop.NewMeterProvider())
	return in
}

func (in *Instruments) Prediction(ctx context.Context, tier string) {
	in.predictions.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (in *Instruments) PredictionError(ctx context.Context, kind string) {
	in.predictionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Retrain records one pipeline run. outcome is "completed" or an error kind.
func (in *Instruments) Retrain(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	in.retrains.Add(ctx, 1, attrs)
	in.retrainDuration.Record(ctx, elapsed.Seconds(), attrs)
}

//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgkafka "github.com/heartcheck/heartcheck/pkg/kafka"
	"github.com/heartcheck/heartcheck/pkg/observability"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

func TestTrainingCompletedTriggersReload_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc := testutil.NewKafkaContainer(ctx, t)
	kc.CreateTopics(t, topics.Training, topics.Alerts)
	cfg := pkgkafka.Config{Brokers: kc.Brokers, ConsumerGroup: "heartcheck-replica"}
	logger := observability.Discard()

	reloaded := make(chan struct{}, 1)
	handler := NewReloadHandler(func(context.Context) error {
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	}, logger)

	consumer, err := pkgkafka.NewConsumer(cfg, topics.Training, handler, logger)
	require.NoError(t, err)
	defer consumer.Close()

	consumeCtx, stopConsumer := context.WithCancel(ctx)
	consumed := make(chan error, 1)
	go func() { consumed <- consumer.Start(consumeCtx) }()

	producer, err := pkgkafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()
	pub := NewPublisher(producer, topics, logger)

	// The group starts at the newest offset, so keep publishing until the
	// consumer has joined and seen one.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for done := false; !done; {
		require.NoError(t, pub.Publish(ctx, trainingEvent()))
		select {
		case <-reloaded:
			done = true
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("consumer never reloaded after TrainingCompleted")
		}
	}

	stopConsumer()
	require.NoError(t, <-consumed)
}

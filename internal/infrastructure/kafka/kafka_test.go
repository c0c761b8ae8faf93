package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/event"
	"github.com/heartcheck/heartcheck/pkg/events"
	pkgkafka "github.com/heartcheck/heartcheck/pkg/kafka"
	"github.com/heartcheck/heartcheck/pkg/observability"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

type recordingProducer struct {
	sent map[string][]pkgkafka.Message
	err  error
}

func (p *recordingProducer) Publish(_ context.Context, topic string, messages ...pkgkafka.Message) error {
	if p.err != nil {
		return p.err
	}
	if p.sent == nil {
		p.sent = map[string][]pkgkafka.Message{}
	}
	p.sent[topic] = append(p.sent[topic], messages...)
	return nil
}

var topics = Topics{Training: "heartcheck.training", Alerts: "heartcheck.alerts"}

func trainingEvent() events.DomainEvent {
	return event.NewTrainingCompleted(event.TrainingCompleted{
		RunID:       testutil.TestRunID1,
		ModelKind:   "logistic_regression",
		Accuracy:    0.8,
		CompletedAt: time.Now().UTC(),
	})
}

func TestPublisher_RoutesByType(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewPublisher(producer, topics, observability.Discard())

	p := 0.91
	alert := event.NewHighRiskPredicted(event.HighRiskPredicted{
		PredictionID: uuid.New(), ModelRunID: testutil.TestRunID1, Probability: &p, Tier: "HIGH",
	})
	require.NoError(t, pub.Publish(context.Background(), trainingEvent(), alert))

	require.Len(t, producer.sent[topics.Training], 1)
	require.Len(t, producer.sent[topics.Alerts], 1)

	msg := producer.sent[topics.Training][0]
	assert.Equal(t, testutil.TestRunID1.String(), string(msg.Key))
	assert.Equal(t, event.EventTypeTrainingCompleted, msg.Headers["event_type"])

	env, err := events.Unmarshal(msg.Value)
	require.NoError(t, err)
	payload, err := event.DecodeTrainingCompleted(env)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestRunID1, payload.RunID)
}

func TestPublisher_ProducerError(t *testing.T) {
	pub := NewPublisher(&recordingProducer{err: errors.New("broker down")}, topics, observability.Discard())
	err := pub.Publish(context.Background(), trainingEvent())
	assert.ErrorContains(t, err, "broker down")
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, NewLogPublisher(observability.Discard()).Publish(context.Background(), trainingEvent()))
}

func TestReloadHandler(t *testing.T) {
	data, err := events.Marshal(trainingEvent())
	require.NoError(t, err)

	tests := []struct {
		name       string
		msg        pkgkafka.Message
		reloadErr  error
		wantCalls  int
		wantErrors bool
	}{
		{
			name:      "training completed",
			msg:       pkgkafka.Message{Value: data, Headers: map[string]string{"event_type": event.EventTypeTrainingCompleted}},
			wantCalls: 1,
		},
		{
			name: "other event type",
			msg:  pkgkafka.Message{Value: data, Headers: map[string]string{"event_type": event.EventTypeHighRiskPredicted}},
		},
		{
			name: "malformed",
			msg:  pkgkafka.Message{Value: []byte("{")},
		},
		{
			name:       "reload fails",
			msg:        pkgkafka.Message{Value: data},
			reloadErr:  errors.New("corrupt"),
			wantCalls:  1,
			wantErrors: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			h := NewReloadHandler(func(context.Context) error {
				calls++
				return tt.reloadErr
			}, observability.Discard())

			err := h(context.Background(), tt.msg)
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErrors {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()

	before := time.Now().UTC()
	event := NewBaseEvent("heartcheck.training.completed", aggregateID, "TrainingRun", []byte(`{"accuracy":0.9}`))
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "heartcheck.training.completed", event.EventType())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "TrainingRun", event.AggregateType())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	event := NewBaseEvent("heartcheck.prediction.high_risk", uuid.New(), "Prediction", []byte(`{"tier":"HIGH"}`))

	data, err := Marshal(event)
	require.NoError(t, err)

	env, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID(), env.ID)
	assert.Equal(t, event.EventType(), env.Type)
	assert.JSONEq(t, `{"tier":"HIGH"}`, string(env.Payload))
}

func TestUnmarshal_Rejects(t *testing.T) {
	_, err := Unmarshal([]byte("{"))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"id":"` + uuid.NewString() + `"}`))
	assert.Error(t, err)
}

func TestEventCollector(t *testing.T) {
	collector := &EventCollector{}
	id := uuid.New()

	collector.Record(NewBaseEvent("a", id, "Agg", nil))
	collector.Record(NewBaseEvent("b", id, "Agg", nil))

	assert.Len(t, collector.Events(), 2)
	assert.Len(t, collector.Events(), 2, "Events must not clear")

	cleared := collector.ClearEvents()
	require.Len(t, cleared, 2)
	assert.Equal(t, "a", cleared[0].EventType())
	assert.Empty(t, collector.Events())
	assert.Nil(t, collector.ClearEvents())
}

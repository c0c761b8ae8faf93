package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, p.brokers)
	assert.Empty(t, p.writers)
}

func TestNewProducer_RejectsUnknownMechanism(t *testing.T) {
	_, err := NewProducer(Config{Brokers: []string{"k:9092"}, SASLEnabled: true, SASLMechanism: "GSSAPI"})
	assert.Error(t, err)
}

func TestProducer_WriterPerTopic(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)

	a1 := p.writer("heartcheck.training.completed")
	a2 := p.writer("heartcheck.training.completed")
	b := p.writer("heartcheck.prediction.high_risk")

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Len(t, p.writers, 2)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestConfig_Mechanisms(t *testing.T) {
	for _, name := range []string{"", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		t.Run(name, func(t *testing.T) {
			m, err := Config{SASLMechanism: name, SASLUsername: "u", SASLPassword: "p"}.mechanism()
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Brokers: []string{"k:9092"}}.Enabled())
}

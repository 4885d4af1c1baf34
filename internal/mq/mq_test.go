package mq

import (
	"context"
	"testing"

	"github.com/newshub/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_NoneUsesDiscard(t *testing.T) {
	m, err := Open(context.Background(), config.MQConfig{Backend: config.MQBackendNone})
	require.NoError(t, err)

	id, err := m.Publish(context.Background(), "favorites.added", []byte(`{}`), nil)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, m.Close())
}

func TestOpen_RabbitMQRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), config.MQConfig{Backend: config.MQBackendRabbitMQ})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq url is required")
}

func TestOpen_PubSubRequiresProject(t *testing.T) {
	_, err := Open(context.Background(), config.MQConfig{Backend: config.MQBackendPubSub})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pubsub project id is required")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)
}

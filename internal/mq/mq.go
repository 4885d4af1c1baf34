// Package mq publishes domain events to a message broker.
package mq

import (
	"context"
	"fmt"

	"github.com/newshub/apiserver/config"
)

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Open connects the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Backend {
	case config.MQBackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return New(client), nil
	case config.MQBackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		return New(client), nil
	case config.MQBackendNone, "":
		return New(Discard{}), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

// Discard drops every message. It is used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (Discard) Close() error { return nil }

package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/outbox"
)

// NATSPublisher publishes outbox messages on one NATS subject so that every
// API instance can forward them to its own websocket clients.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Publish implements outbox.Publisher.
func (p *NATSPublisher) Publish(_ context.Context, msg outbox.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to nats: %w", err)
	}
	return nil
}

// Bridge forwards messages arriving on a NATS subject into a local hub.
type Bridge struct {
	sub    *nats.Subscription
	logger *zap.Logger
}

// NewBridge subscribes to subject and relays every message to hub.
func NewBridge(conn *nats.Conn, subject string, hub *Hub, logger *zap.Logger) (*Bridge, error) {
	b := &Bridge{logger: logger}
	sub, err := conn.Subscribe(subject, func(m *nats.Msg) {
		msg, err := decodeMessage(m.Data)
		if err != nil {
			logger.Warn("Discarding malformed realtime message", zap.Error(err))
			return
		}
		if err := hub.Publish(context.Background(), msg); err != nil {
			logger.Debug("Hub rejected bridged message", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	b.sub = sub
	return b, nil
}

// Close stops forwarding.
func (b *Bridge) Close() error {
	return b.sub.Unsubscribe()
}

func decodeMessage(data []byte) (outbox.Message, error) {
	var msg outbox.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.Topic == "" {
		return msg, fmt.Errorf("message without topic")
	}
	return msg, nil
}

var _ outbox.Publisher = (*NATSPublisher)(nil)

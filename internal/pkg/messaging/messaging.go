package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrHandlerRequired is returned when Consume is called with a nil handler.
var ErrHandlerRequired = errors.New("messaging: handler is required")

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic (subject for NATS).
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. A non-nil error requests redelivery.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	// Key is used by Kafka for partitioning and ignored elsewhere.
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	ID         string
	Topic      string
	Key        []byte
	Body       []byte
	Headers    map[string]string
	ReceivedAt time.Time
}

// Header returns the header value for key, or "".
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// IgnoreCanceled drops context.Canceled, which marks a normal consumer stop.
func IgnoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var (
	// ErrPubSubProjectIDRequired is returned when the project id is empty.
	ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")
	// ErrPubSubTopicRequired is returned when the topic is empty.
	ErrPubSubTopicRequired = errors.New("messaging: pubsub topic is required")
	// ErrPubSubSubscriptionRequired is returned when no subscription (group) is provided.
	ErrPubSubSubscriptionRequired = errors.New("messaging: pubsub subscription is required")
)

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	// ProjectID is the Google Cloud project.
	ProjectID string
	// ClientOptions are applied to pubsub.NewClient (credentials, endpoint).
	ClientOptions []option.ClientOption
}

// PubSub is a messaging implementation backed by Google Pub/Sub.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	closed     bool
	publishers map[string]*pubsub.Publisher
}

// NewPubSub constructs a Pub/Sub client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

// Close stops publishers and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := make([]*pubsub.Publisher, 0, len(p.publishers))
	for _, pub := range p.publishers {
		pubs = append(pubs, pub)
	}
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

// Publish sends a message to a topic. Headers become message attributes.
func (p *PubSub) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrPubSubTopicRequired
	}

	pub, err := p.getPublisher(topic)
	if err != nil {
		return err
	}

	res := pub.Publish(ctx, &pubsub.Message{
		Data:       msg.Body,
		Attributes: msg.Headers,
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

// Consume receives from the subscription named by WithGroup until ctx is cancelled.
// A handler error nacks the message for redelivery.
func (p *PubSub) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case handler == nil:
		return ErrHandlerRequired
	case co.group == "":
		return ErrPubSubSubscriptionRequired
	}

	sub := p.client.Subscriber(co.group)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight

	return sub.Receive(ctx, func(rctx context.Context, m *pubsub.Message) {
		err := dispatch(rctx, "pubsub", handler, Message{
			ID:         m.ID,
			Topic:      topic,
			Body:       m.Data,
			Headers:    m.Attributes,
			ReceivedAt: time.Now(),
		})
		if err != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
}

func (p *PubSub) getPublisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, io.ErrClosedPipe
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}
	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub
	return pub, nil
}

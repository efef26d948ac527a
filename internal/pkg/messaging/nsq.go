package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQTopicRequired is returned when the topic is empty.
	ErrNSQTopicRequired = errors.New("messaging: nsq topic is required")
	// ErrNSQChannelRequired is returned when no channel (group) is provided.
	ErrNSQChannelRequired = errors.New("messaging: nsq channel is required")
	// ErrNSQProducerAddrRequired is returned when publishing without a producer address.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned when neither nsqd nor lookupd addresses are set.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq consumer nsqd/lookupd addresses are required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd TCP address used for publishing.
	ProducerAddr string
	// ConsumerNSQDAddrs are nsqd addresses consumed directly.
	ConsumerNSQDAddrs []string
	// ConsumerLookupdAddrs are nsqlookupd HTTP addresses; preferred over nsqd when set.
	ConsumerLookupdAddrs []string
	// ProducerConfig and ConsumerConfig default to nsq.NewConfig when nil.
	ProducerConfig *nsq.Config
	ConsumerConfig *nsq.Config
}

// NSQ is a messaging implementation backed by go-nsq. NSQ has no message
// headers, so only the body travels.
type NSQ struct {
	producer *nsq.Producer

	nsqdAddrs    []string
	lookupdAddrs []string
	consumerCfg  *nsq.Config

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

// NewNSQ constructs an NSQ client. The producer is created only when ProducerAddr is set.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	n := &NSQ{
		nsqdAddrs:    append([]string{}, cfg.ConsumerNSQDAddrs...),
		lookupdAddrs: append([]string{}, cfg.ConsumerLookupdAddrs...),
		consumerCfg:  orDefaultNSQConfig(cfg.ConsumerConfig),
	}

	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, orDefaultNSQConfig(cfg.ProducerConfig))
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

func orDefaultNSQConfig(cfg *nsq.Config) *nsq.Config {
	if cfg == nil {
		return nsq.NewConfig()
	}
	return cfg
}

// Close stops consumers and the producer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := append([]*nsq.Consumer{}, n.consumers...)
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

// Publish sends a message to an NSQ topic.
func (n *NSQ) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrNSQTopicRequired
	}
	if n.producer == nil {
		return ErrNSQProducerAddrRequired
	}

	if err := n.producer.Publish(topic, msg.Body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Consume subscribes the channel named by WithGroup and blocks until ctx is cancelled.
// A handler error requeues the message.
func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case topic == "":
		return ErrNSQTopicRequired
	case handler == nil:
		return ErrHandlerRequired
	case co.group == "":
		return ErrNSQChannelRequired
	case len(n.nsqdAddrs) == 0 && len(n.lookupdAddrs) == 0:
		return ErrNSQConsumerAddrsRequired
	}

	// Each consumer gets its own copy since MaxInFlight is per subscription.
	cfg := *n.consumerCfg
	cfg.MaxInFlight = co.maxInFlight

	consumer, err := nsq.NewConsumer(topic, co.group, &cfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		return dispatch(ctx, "nsq", handler, Message{
			ID:         fmt.Sprintf("%x", m.ID),
			Topic:      topic,
			Body:       m.Body,
			ReceivedAt: time.Now(),
		})
	}), co.concurrency)

	if err := n.addConsumer(consumer); err != nil {
		stopNSQConsumer(consumer)
		return err
	}

	if len(n.lookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.lookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.nsqdAddrs)
	}
	if err != nil {
		stopNSQConsumer(consumer)
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		stopNSQConsumer(consumer)
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func (n *NSQ) addConsumer(consumer *nsq.Consumer) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return io.ErrClosedPipe
	}
	n.consumers = append(n.consumers, consumer)
	return nil
}

func stopNSQConsumer(consumer *nsq.Consumer) {
	consumer.Stop()
	<-consumer.StopChan
}

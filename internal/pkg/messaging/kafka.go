package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrKafkaTopicRequired is returned when the topic is empty.
	ErrKafkaTopicRequired = errors.New("messaging: kafka topic is required")
	// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	// ErrKafkaGroupRequired is returned when a consumer group is not provided.
	ErrKafkaGroupRequired = errors.New("messaging: kafka consumer group is required")
)

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string
	// RetryBase is the first delay before a failed message is handled again.
	RetryBase time.Duration
	// RetryMax caps the delay between handler attempts.
	RetryMax time.Duration
}

// Kafka is a messaging implementation backed by kafka-go.
//
// A failed handler is retried with capped exponential backoff until it succeeds
// or the consume context ends; the offset is committed only after success, so an
// unprocessed message is fetched again by the next group member.
type Kafka struct {
	brokers   []string
	retryBase time.Duration
	retryMax  time.Duration

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	closed  bool
}

// NewKafka constructs a Kafka messaging client.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 30 * time.Second
	}

	return &Kafka{
		brokers:   append([]string{}, cfg.Brokers...),
		retryBase: cfg.RetryBase,
		retryMax:  cfg.RetryMax,
		writers:   map[string]*kafka.Writer{},
	}, nil
}

// Close shuts down all Kafka readers and writers.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers := make([]*kafka.Writer, 0, len(k.writers))
	for _, w := range k.writers {
		writers = append(writers, w)
	}
	k.writers = nil
	readers := append([]*kafka.Reader{}, k.readers...)
	k.readers = nil
	k.mu.Unlock()

	var closeErr error
	for _, r := range readers {
		closeErr = errors.Join(closeErr, r.Close())
	}
	for _, w := range writers {
		closeErr = errors.Join(closeErr, w.Close())
	}
	return closeErr
}

// Publish sends a message to a Kafka topic.
func (k *Kafka) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrKafkaTopicRequired
	}

	writer, err := k.getWriter(topic)
	if err != nil {
		return err
	}

	kmsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
	}
	for key, value := range msg.Headers {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	if err := writer.WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

// Consume starts one reader per unit of concurrency in the consumer group and
// blocks until ctx is cancelled or a reader fails.
func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case topic == "":
		return ErrKafkaTopicRequired
	case handler == nil:
		return ErrHandlerRequired
	case co.group == "":
		return ErrKafkaGroupRequired
	}

	readers := make([]*kafka.Reader, 0, co.concurrency)
	for range co.concurrency {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     k.brokers,
			GroupID:     co.group,
			Topic:       topic,
			MaxBytes:    10e6,
			StartOffset: kafka.FirstOffset,
		})
		if err := k.addReader(reader); err != nil {
			return errors.Join(err, reader.Close())
		}
		readers = append(readers, reader)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(readers))
	for _, reader := range readers {
		wg.Go(func() {
			errCh <- k.readLoop(ctx, reader, handler)
		})
	}
	wg.Wait()
	close(errCh)

	var consumeErr error
	for err := range errCh {
		consumeErr = errors.Join(consumeErr, err)
	}
	for _, reader := range readers {
		k.removeReader(reader)
		consumeErr = errors.Join(consumeErr, reader.Close())
	}
	if consumeErr != nil {
		return consumeErr
	}
	return ctx.Err()
}

func (k *Kafka) readLoop(ctx context.Context, reader *kafka.Reader, handler Handler) error {
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("messaging: kafka fetch: %w", err)
		}

		msg := fromKafkaMessage(m)
		b := retry.WithCappedDuration(k.retryMax, retry.NewExponential(k.retryBase))
		err = retry.Do(ctx, b, func(context.Context) error {
			if herr := dispatch(ctx, "kafka", handler, msg); herr != nil {
				slog.WarnContext(ctx, "kafka handler failed, retrying", "id", msg.ID, "error", herr)
				return retry.RetryableError(herr)
			}
			return nil
		})
		if err != nil {
			// consume context ended before the message was handled; leave it uncommitted
			return nil
		}

		if err := reader.CommitMessages(context.WithoutCancel(ctx), m); err != nil {
			return fmt.Errorf("messaging: kafka commit: %w", err)
		}
	}
}

func (k *Kafka) getWriter(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, io.ErrClosedPipe
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) addReader(reader *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers = append(k.readers, reader)
	return nil
}

func (k *Kafka) removeReader(reader *kafka.Reader) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i := range k.readers {
		if k.readers[i] == reader {
			k.readers = append(k.readers[:i], k.readers[i+1:]...)
			return
		}
	}
}

func fromKafkaMessage(m kafka.Message) Message {
	msg := Message{
		ID:         m.Topic + "/" + strconv.Itoa(m.Partition) + "/" + strconv.FormatInt(m.Offset, 10),
		Topic:      m.Topic,
		Key:        m.Key,
		Body:       m.Value,
		ReceivedAt: time.Now(),
	}
	if len(m.Headers) > 0 {
		msg.Headers = make(map[string]string, len(m.Headers))
		for _, h := range m.Headers {
			if _, ok := msg.Headers[h.Key]; !ok {
				msg.Headers[h.Key] = string(h.Value)
			}
		}
	}
	return msg
}

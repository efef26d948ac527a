package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var (
	// ErrNATSSubjectRequired is returned when the subject is empty.
	ErrNATSSubjectRequired = errors.New("messaging: nats subject is required")
	// ErrNATSURLRequired is returned when the server URL is empty.
	ErrNATSURLRequired = errors.New("messaging: nats url is required")
)

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL is the NATS server URL.
	URL string
	// Options are applied to nats.Connect.
	Options []nats.Option
}

// NATS is a messaging implementation backed by core NATS queue subscriptions.
//
// Core NATS has no redelivery: a failed handler is logged and the message is dropped.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains subscriptions and the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.subs = nil
	n.mu.Unlock()

	err := n.conn.Drain()
	n.conn.Close()
	return err
}

// Publish sends a message to a subject.
func (n *NATS) Publish(ctx context.Context, subject string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if subject == "" {
		return ErrNATSSubjectRequired
	}

	nmsg := nats.NewMsg(subject)
	nmsg.Data = msg.Body
	for key, value := range msg.Headers {
		nmsg.Header.Set(key, value)
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// Consume joins the queue group named by WithGroup and blocks until ctx is cancelled.
func (n *NATS) Consume(ctx context.Context, subject string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if subject == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	msgCh := make(chan *nats.Msg, co.maxInFlight)

	sub, err := n.conn.QueueSubscribe(subject, co.group, func(m *nats.Msg) {
		select {
		case msgCh <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}
	if err := n.addSub(sub); err != nil {
		return errors.Join(err, sub.Unsubscribe())
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				msg := fromNATSMessage(m)
				if herr := dispatch(ctx, "nats", handler, msg); herr != nil {
					slog.ErrorContext(ctx, "nats handler failed, message dropped", "subject", subject, "error", herr)
				}
			}
		})
	}

	<-ctx.Done()

	// Drain returns immediately; the callback may still run until the drain completes.
	drainErr := sub.Drain()
	for sub.IsValid() {
		time.Sleep(10 * time.Millisecond)
	}
	close(msgCh)
	wg.Wait()

	return errors.Join(ctx.Err(), drainErr)
}

func (n *NATS) addSub(sub *nats.Subscription) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return io.ErrClosedPipe
	}
	n.subs = append(n.subs, sub)
	return nil
}

func fromNATSMessage(m *nats.Msg) Message {
	msg := Message{
		Topic:      m.Subject,
		Body:       m.Data,
		ReceivedAt: time.Now(),
	}
	if len(m.Header) > 0 {
		msg.Headers = make(map[string]string, len(m.Header))
		for key := range m.Header {
			msg.Headers[key] = m.Header.Get(key)
		}
		msg.ID = m.Header.Get(nats.MsgIdHdr)
	}
	return msg
}

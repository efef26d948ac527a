// Package deadletter parks task events that produced no notifications.
package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/messaging"
	"github.com/shandysiswandi/gonotify/internal/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DriverLog       = "log"
	DriverStorage   = "storage"
	DriverMessaging = "messaging"
)

func startSpan(ctx context.Context, ins instrument.Instrumentation, name string, dl entity.DeadLetter) (context.Context, trace.Span) {
	ctx, span := ins.Tracer("notification.outbound.deadletter").Start(ctx, name)
	span.SetAttributes(attribute.String("reason", dl.Reason), attribute.String("source", dl.Source))
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Log writes dead letters to the structured log only.
type Log struct{}

func (Log) Put(ctx context.Context, dl entity.DeadLetter) error {
	slog.ErrorContext(ctx, "dead letter",
		"id", dl.ID,
		"reason", dl.Reason,
		"source", dl.Source,
		"message_id", dl.MessageID,
		"error", dl.Error,
		"body", string(dl.Body),
	)
	return nil
}

// Storage writes each dead letter as a JSON object under
// <prefix>/YYYY/MM/DD/<id>.json.
type Storage struct {
	store  storage.Storage
	prefix string
	ins    instrument.Instrumentation
}

func NewStorage(store storage.Storage, prefix string, ins instrument.Instrumentation) *Storage {
	if prefix == "" {
		prefix = "deadletter"
	}
	return &Storage{store: store, prefix: prefix, ins: ins}
}

// Key returns the object key of dl.
func (s *Storage) Key(dl entity.DeadLetter) string {
	return path.Join(s.prefix, dl.ReceivedAt.UTC().Format("2006/01/02"), dl.ID+".json")
}

func (s *Storage) Put(ctx context.Context, dl entity.DeadLetter) (err error) {
	ctx, span := startSpan(ctx, s.ins, "StoragePut", dl)
	defer func() { endSpan(span, err) }()

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("deadletter: marshal: %w", err)
	}

	info, err := s.store.PutObject(ctx, s.Key(dl), data, storage.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"reason": dl.Reason},
	})
	if err != nil {
		return err
	}

	slog.WarnContext(ctx, "dead letter stored", "bucket", info.Bucket, "key", info.Key, "reason", dl.Reason)
	return nil
}

// Messaging republishes dead letters to a dedicated topic.
type Messaging struct {
	pub   messaging.Publisher
	topic string
	ins   instrument.Instrumentation
}

func NewMessaging(pub messaging.Publisher, topic string, ins instrument.Instrumentation) *Messaging {
	return &Messaging{pub: pub, topic: topic, ins: ins}
}

func (m *Messaging) Put(ctx context.Context, dl entity.DeadLetter) (err error) {
	ctx, span := startSpan(ctx, m.ins, "MessagingPut", dl)
	defer func() { endSpan(span, err) }()

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("deadletter: marshal: %w", err)
	}

	headers := map[string]string{"reason": dl.Reason, "source": dl.Source}
	for k, v := range dl.Headers {
		if _, taken := headers[k]; !taken {
			headers[k] = v
		}
	}

	return m.pub.Publish(ctx, m.topic, messaging.OutgoingMessage{
		Key:     []byte(dl.MessageID),
		Body:    data,
		Headers: headers,
	})
}

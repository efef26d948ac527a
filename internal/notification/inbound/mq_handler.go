package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/notification/usecase"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/messaging"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid := msg.Header(keyOfCorrelationID); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// TaskEvent handles one message of the task-events stream. A returned error
// asks the broker to redeliver.
func (h *MQHandler) TaskEvent(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "TaskEvent")
	defer span.End()

	slog.InfoContext(ctx, "consume: task event", "topic", msg.Topic, "message_id", msg.ID, "msg_body", string(msg.Body))

	env := usecase.Envelope{
		Source:     msg.Topic,
		MessageID:  msg.ID,
		Body:       msg.Body,
		Headers:    msg.Headers,
		ReceivedAt: msg.ReceivedAt,
	}

	var payload event.TaskEventMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of task event", "msg_body", string(msg.Body), "error", err)
		return h.uc.RejectTaskEvent(ctx, env, entity.DeadLetterMalformed, err)
	}

	in := usecase.ConsumeTaskEventInput{
		EventID:        payload.EventID,
		EventType:      payload.EventType,
		TaskID:         payload.TaskID,
		TaskTitle:      payload.TaskTitle,
		SubjectUserID:  payload.UserID,
		AssigneeUserID: payload.AssigneeID,
		Envelope:       env,
	}
	if payload.EventTimestamp != nil && !payload.EventTimestamp.IsZero() {
		ts := payload.EventTimestamp.Time
		in.EventTimestamp = &ts
	}

	if err := h.uc.ConsumeTaskEvent(ctx, in); err != nil {
		slog.ErrorContext(ctx, "failed to consume task event", "msg_body", string(msg.Body), "error", err)
		return err
	}

	return nil
}

package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/idempotency"
)

type (
	// Envelope is what the transport knew about a message; it is kept for dead letters.
	Envelope struct {
		Source     string
		MessageID  string
		Body       []byte
		Headers    map[string]string
		ReceivedAt time.Time
	}

	ConsumeTaskEventInput struct {
		EventID        string
		EventType      string `validate:"required"`
		TaskID         string
		TaskTitle      *string
		SubjectUserID  int64 `validate:"gt=0"`
		AssigneeUserID *int64
		EventTimestamp *time.Time
		Envelope       Envelope `validate:"-"`
	}
)

func (in ConsumeTaskEventInput) event() entity.TaskEvent {
	return entity.TaskEvent{
		EventID:        in.EventID,
		EventType:      in.EventType,
		TaskID:         in.TaskID,
		TaskTitle:      in.TaskTitle,
		SubjectUserID:  in.SubjectUserID,
		AssigneeUserID: in.AssigneeUserID,
		EventTimestamp: in.EventTimestamp,
	}
}

// EventKey is the deterministic idempotency key of an event, or "" when the
// event carries neither a timestamp nor an id.
func EventKey(ev entity.TaskEvent) string {
	var raw string
	switch {
	case ev.EventTimestamp != nil && !ev.EventTimestamp.IsZero():
		raw = strings.Join([]string{
			ev.EventType,
			ev.TaskID,
			ev.EventTimestamp.UTC().Format(time.RFC3339Nano),
		}, "|")
	case ev.EventID != "":
		raw = ev.EventID
	default:
		return ""
	}

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ConsumeTaskEvent turns one task event into stored notifications and tries to
// deliver them. Only a failure to dead-letter the event is returned, so the
// broker redelivers it.
func (s *Usecase) ConsumeTaskEvent(ctx context.Context, in ConsumeTaskEventInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeTaskEvent")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return s.RejectTaskEvent(ctx, in.Envelope, entity.DeadLetterMalformed, err)
	}

	ev := in.event()
	key := EventKey(ev)
	if !s.claimEvent(ctx, key) {
		slog.InfoContext(ctx, "task event already handled", "event_type", ev.EventType, "task_id", ev.TaskID, "event_key", key)
		s.metrics.recordSkipped(ctx, "duplicate")
		return nil
	}

	drafts := MapEvent(ev)
	if len(drafts) == 0 {
		err := s.RejectTaskEvent(ctx, in.Envelope, entity.DeadLetterUnknownEventType,
			fmt.Errorf("%w: event type %q", ErrMappingSkipped, ev.EventType))
		if err != nil {
			s.releaseEvent(ctx, key)
			return err
		}
		s.completeEvent(ctx, key)
		return nil
	}

	created := make([]entity.Notification, 0, len(drafts))
	for _, d := range drafts {
		n := s.newNotification(d, key)

		ok, err := s.createWithRetry(ctx, n)
		if err != nil {
			s.releaseEvent(ctx, key)
			return s.RejectTaskEvent(ctx, in.Envelope, entity.DeadLetterStoreFailure, err)
		}
		if !ok {
			slog.InfoContext(ctx, "notification already exists", "dedup_key", n.DedupKey, "user_id", n.UserID)
			continue
		}

		s.metrics.created.Add(ctx, 1)
		created = append(created, n)
	}
	s.completeEvent(ctx, key)

	for _, n := range created {
		if err := s.deliver(ctx, n, deliveryPathInline); err != nil {
			slog.WarnContext(ctx, "inline delivery failed, left for retry sweep", "notification_id", n.ID, "error", err)
		}
	}

	return nil
}

// RejectTaskEvent records an event that cannot produce notifications. The
// returned error is non-nil only when the dead-letter sink failed.
func (s *Usecase) RejectTaskEvent(ctx context.Context, env Envelope, reason string, cause error) error {
	slog.WarnContext(ctx, "task event skipped", "reason", reason, "source", env.Source, "message_id", env.MessageID, "error", cause)
	s.metrics.recordSkipped(ctx, reason)

	dl := entity.DeadLetter{
		ID:         s.uuid.Generate(),
		Reason:     reason,
		Source:     env.Source,
		MessageID:  env.MessageID,
		Body:       env.Body,
		Headers:    env.Headers,
		ReceivedAt: env.ReceivedAt,
	}
	if cause != nil {
		dl.Error = cause.Error()
	}
	if dl.ReceivedAt.IsZero() {
		dl.ReceivedAt = s.now()
	}

	if err := s.repoDeadLetter.Put(ctx, dl); err != nil {
		slog.ErrorContext(ctx, "failed to repo put dead letter", "reason", reason, "error", err)
		return err
	}

	return nil
}

func (s *Usecase) newNotification(d entity.Draft, eventKey string) entity.Notification {
	n := entity.Notification{
		ID:        s.uid.Generate(),
		UserID:    d.UserID,
		Title:     d.Title,
		Message:   d.Message,
		Type:      d.Type,
		TaskID:    d.TaskID,
		CreatedAt: s.now(),
	}
	if eventKey != "" {
		n.DedupKey = eventKey + ":" + string(d.Role)
	}
	return n
}

func (s *Usecase) createWithRetry(ctx context.Context, n entity.Notification) (created bool, err error) {
	b := retry.NewExponential(100 * time.Millisecond)
	b = retry.WithMaxRetries(3, b)
	b = retry.WithCappedDuration(2*time.Second, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := s.repoDB.CreateNotification(ctx, n)
		if err != nil {
			slog.WarnContext(ctx, "failed to repo create notification, retrying", "user_id", n.UserID, "error", err)
			return retry.RetryableError(err)
		}
		created = ok
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "user_id", n.UserID, "dedup_key", n.DedupKey, "error", err)
		return false, err
	}

	return created, nil
}

// claimEvent reports whether the event still needs processing. Only a
// completed key skips it: an in-progress key may belong to a worker that died
// after claiming, and the store dedup key keeps a concurrent run from
// creating duplicates.
func (s *Usecase) claimEvent(ctx context.Context, key string) bool {
	if s.tracker == nil || key == "" {
		return true
	}

	lock := s.secondsOr("redis.idempotency.lock_seconds", 30*time.Second)
	state, err := s.tracker.Acquire(ctx, key, lock)
	if err != nil {
		slog.WarnContext(ctx, "failed to acquire event key, continuing", "event_key", key, "error", err)
		return true
	}

	if state == idempotency.StateInProgress {
		slog.InfoContext(ctx, "task event key in progress, processing anyway", "event_key", key)
	}
	return state != idempotency.StateCompleted
}

func (s *Usecase) completeEvent(ctx context.Context, key string) {
	if s.tracker == nil || key == "" {
		return
	}

	ttl := s.secondsOr("redis.idempotency.state_seconds", 24*time.Hour)
	if err := s.tracker.MarkCompleted(ctx, key, ttl); err != nil {
		slog.WarnContext(ctx, "failed to mark event key completed", "event_key", key, "error", err)
	}
}

func (s *Usecase) releaseEvent(ctx context.Context, key string) {
	if s.tracker == nil || key == "" {
		return
	}

	if err := s.tracker.Release(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to release event key", "event_key", key, "error", err)
	}
}

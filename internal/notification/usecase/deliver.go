package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
)

const (
	deliveryPathInline = "inline"
	deliveryPathSweep  = "sweep"
)

// EmailBody renders the plain-text body sent for a notification.
func EmailBody(n entity.Notification) string {
	var b strings.Builder
	b.WriteString("Dear User,\n\n")
	b.WriteString(n.Message)
	b.WriteString("\n\n")
	if n.TaskID != "" {
		fmt.Fprintf(&b, "Task ID: %s\n", n.TaskID)
	}
	fmt.Fprintf(&b, "Notification Type: %s\n", n.Type)
	fmt.Fprintf(&b, "Created At: %s\n\n", n.CreatedAt.UTC().Format(time.RFC3339))
	b.WriteString("Please log in to your Task Manager account to view more details.\n\n")
	b.WriteString("Best regards,\n")
	b.WriteString("Task Manager Team")
	return b.String()
}

// deliver sends n once and records the confirmed delivery. The send is bounded
// by the delivery timeout; the sent flag is written on the caller's context.
func (s *Usecase) deliver(ctx context.Context, n entity.Notification, path string) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.secondsOr("modules.notification.delivery.timeout_seconds", 5*time.Second))
	err := s.repoSender.Send(sendCtx, n.UserID, n.Title, EmailBody(n))
	cancel()
	if err != nil {
		s.metrics.recordDelivery(ctx, "failed", path)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	if err := s.repoDB.MarkNotificationSent(ctx, n.ID, s.now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark notification sent", "notification_id", n.ID, "error", err)
		s.metrics.recordDelivery(ctx, "unconfirmed", path)
		return err
	}

	s.metrics.recordDelivery(ctx, "sent", path)
	return nil
}

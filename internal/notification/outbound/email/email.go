package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultRecipientTemplate maps a user id to a mailbox until a user directory exists.
const DefaultRecipientTemplate = "user%d@taskmanager.com"

// Sender delivers notifications by email. A nil client simulates sends.
type Sender struct {
	client            mail.Mail
	recipientTemplate string
	ins               instrument.Instrumentation
}

func New(client mail.Mail, recipientTemplate string, ins instrument.Instrumentation) *Sender {
	if !strings.Contains(recipientTemplate, "%d") {
		recipientTemplate = DefaultRecipientTemplate
	}

	return &Sender{client: client, recipientTemplate: recipientTemplate, ins: ins}
}

// Recipient returns the address notifications for userID go to.
func (m *Sender) Recipient(userID int64) string {
	return fmt.Sprintf(m.recipientTemplate, userID)
}

func (m *Sender) Send(ctx context.Context, recipientUserID int64, subject, body string) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	to := m.Recipient(recipientUserID)
	span.SetAttributes(attribute.Int64("recipient_user_id", recipientUserID))

	if m.client == nil {
		slog.InfoContext(ctx, "mail disabled, simulated send", "to", to, "subject", subject)
		return nil
	}

	if err := m.client.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: body,
		// RFC 3834, keeps vacation responders from answering
		Headers: map[string]string{"Auto-Submitted": "auto-generated"},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

package mail

import (
	"context"
	"io"
)

// Message is one outgoing email. TextBody is required; HTMLBody turns the
// message into multipart/alternative.
type Message struct {
	// From overrides the provider's default sender.
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	// Headers are written as extra header fields, for example
	// "Auto-Submitted" on machine generated notices.
	Headers map[string]string
}

// Mail is an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

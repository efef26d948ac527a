// Package mail sends email messages.
//
// Use cases depend on the Mail interface and the provider-agnostic Message
// payload. SMTP composes the MIME message with emersion/go-message.
package mail

package entity

import "time"

// Reasons an event is parked instead of processed.
const (
	DeadLetterMalformed        = "malformed"
	DeadLetterUnknownEventType = "unknown_event_type"
	DeadLetterStoreFailure     = "store_failure"
)

// DeadLetter is an event that could not be turned into notifications.
type DeadLetter struct {
	ID         string            `json:"id"`
	Reason     string            `json:"reason"`
	Error      string            `json:"error,omitempty"`
	Source     string            `json:"source"`
	MessageID  string            `json:"message_id,omitempty"`
	Body       []byte            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}

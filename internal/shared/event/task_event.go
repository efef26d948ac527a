package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const TaskEventsDestination string = "task-events"
const TaskEventsConsumerNotification string = "notification-service-group"

// localTimestampLayout is the zone-less ISO-8601 form the task service emits.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// TaskEventMessage is the JSON contract of the task-events stream.
type TaskEventMessage struct {
	EventID        string          `json:"eventId"`
	EventType      string          `json:"eventType"`
	TaskID         string          `json:"taskId"`
	TaskTitle      *string         `json:"taskTitle"`
	UserID         int64           `json:"userId"`
	AssigneeID     *int64          `json:"assigneeId"`
	Status         string          `json:"status,omitempty"`
	Priority       string          `json:"priority,omitempty"`
	EventTimestamp *Timestamp      `json:"eventTimestamp"`
	EventData      json.RawMessage `json:"eventData,omitempty"`
}

// UnmarshalJSON accepts subjectUserId and assigneeUserId as aliases of userId and assigneeId.
func (m *TaskEventMessage) UnmarshalJSON(data []byte) error {
	type plain TaskEventMessage
	var aux struct {
		plain
		SubjectUserID  *int64 `json:"subjectUserId"`
		AssigneeUserID *int64 `json:"assigneeUserId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*m = TaskEventMessage(aux.plain)
	if m.UserID == 0 && aux.SubjectUserID != nil {
		m.UserID = *aux.SubjectUserID
	}
	if m.AssigneeID == nil && aux.AssigneeUserID != nil {
		m.AssigneeID = aux.AssigneeUserID
	}
	return nil
}

// Timestamp decodes RFC 3339 or zone-less local time, the latter read as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("event: timestamp must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = ts.UTC()
		return nil
	}

	ts, err := time.ParseInLocation(localTimestampLayout, raw, time.UTC)
	if err != nil {
		return fmt.Errorf("event: invalid timestamp %q: %w", raw, err)
	}
	t.Time = ts
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

package entity

import "time"

// TaskEvent is a task lifecycle fact published by the task service.
type TaskEvent struct {
	EventID        string
	EventType      string
	TaskID         string
	TaskTitle      *string
	SubjectUserID  int64
	AssigneeUserID *int64
	EventTimestamp *time.Time
}

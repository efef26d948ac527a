package entity

import "time"

// Notification is a persisted message addressed to one user about one task change.
type Notification struct {
	ID        int64
	UserID    int64
	Title     string
	Message   string
	Type      Type
	TaskID    string
	IsRead    bool
	IsSent    bool
	CreatedAt time.Time
	SentAt    *time.Time
	ReadAt    *time.Time

	// DedupKey identifies the (event, recipient role) pair that produced the
	// notification. Empty when the event carried nothing to derive it from.
	DedupKey string
}

// Role tells which participant of a task event a draft addresses.
type Role string

const (
	RoleSubject  Role = "subject"
	RoleAssignee Role = "assignee"
)

// Draft is a notification derived from an event but not yet stored.
type Draft struct {
	UserID  int64
	Title   string
	Message string
	Type    Type
	TaskID  string
	Role    Role
}

// ListFilter selects a user's notifications. Zero Limit means no limit.
type ListFilter struct {
	UserID int64
	IsRead *bool
	Type   Type
	Limit  int
	Offset int
}

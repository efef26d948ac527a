package inbound

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
)

type NotificationResponse struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	TaskID    *string    `json:"task_id"`
	IsRead    bool       `json:"is_read"`
	IsSent    bool       `json:"is_sent"`
	EmailSent bool       `json:"email_sent"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at"`
	ReadAt    *time.Time `json:"read_at"`
}

func toNotificationResponse(n entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type.String(),
		TaskID:    lo.EmptyableToPtr(n.TaskID),
		IsRead:    n.IsRead,
		IsSent:    n.IsSent,
		EmailSent: n.IsSent,
		CreatedAt: n.CreatedAt,
		SentAt:    n.SentAt,
		ReadAt:    n.ReadAt,
	}
}

func toNotificationResponses(items []entity.Notification) []NotificationResponse {
	return lo.Map(items, func(n entity.Notification, _ int) NotificationResponse {
		return toNotificationResponse(n)
	})
}

// NotificationPageResponse renders as the list itself with paging in meta.
type NotificationPageResponse struct {
	Items         []NotificationResponse
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int64
}

func (p NotificationPageResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Items)
}

func (p NotificationPageResponse) Meta() map[string]any {
	return map[string]any{
		"page":           p.Page,
		"size":           p.Size,
		"total_elements": p.TotalElements,
		"total_pages":    p.TotalPages,
	}
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type UpdatedResponse struct {
	Updated int64 `json:"updated"`
}

func (UpdatedResponse) Message() string { return "notifications marked as read" }

type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

func (DeletedResponse) Message() string { return "read notifications deleted" }

type SweepResponse struct {
	Attempted int64 `json:"attempted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   bool  `json:"skipped"`
}

func (SweepResponse) Message() string { return "unsent notifications processed" }

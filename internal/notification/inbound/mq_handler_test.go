package inbound

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/gonotify/internal/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskMessage(body string) messaging.Message {
	return messaging.Message{
		ID:         "task-events/0/1",
		Topic:      "task-events",
		Body:       []byte(body),
		Headers:    map[string]string{keyOfCorrelationID: "cid-1"},
		ReceivedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMQHandler_TaskEvent(t *testing.T) {
	t.Parallel()

	const assigned = `{
		"eventId": "evt-1",
		"eventType": "TASK_ASSIGNED",
		"taskId": "42",
		"taskTitle": "Ship release",
		"userId": 7,
		"assigneeId": 8,
		"eventTimestamp": "2024-05-01T09:00:00"
	}`

	t.Run("creates and delivers one notification per recipient", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.mq.TaskEvent(context.Background(), taskMessage(assigned)))

		_, env := f.do(t, http.MethodGet, "/api/v1/notifications", 7)
		subject := decodeData[[]NotificationResponse](t, env)
		require.Len(t, subject, 1)
		assert.Equal(t, "Task Assigned", subject[0].Title)
		assert.Equal(t, "Your task 'Ship release' has been assigned to someone.", subject[0].Message)
		assert.True(t, subject[0].IsSent)

		_, env = f.do(t, http.MethodGet, "/api/v1/notifications", 8)
		assignee := decodeData[[]NotificationResponse](t, env)
		require.Len(t, assignee, 1)
		assert.Equal(t, "New Task Assigned", assignee[0].Title)
		require.NotNil(t, assignee[0].TaskID)
		assert.Equal(t, "42", *assignee[0].TaskID)
	})

	t.Run("redelivery does not duplicate", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.mq.TaskEvent(context.Background(), taskMessage(assigned)))
		require.NoError(t, f.mq.TaskEvent(context.Background(), taskMessage(assigned)))

		_, env := f.do(t, http.MethodGet, "/api/v1/notifications/count/unread", 7)
		assert.Equal(t, UnreadCountResponse{UnreadCount: 1}, decodeData[UnreadCountResponse](t, env))
	})

	t.Run("accepts subject alias fields", func(t *testing.T) {
		f := newFixture(t)

		body := `{"eventType":"TASK_COMPLETED","taskId":"9","subjectUserId":7}`
		require.NoError(t, f.mq.TaskEvent(context.Background(), taskMessage(body)))

		_, env := f.do(t, http.MethodGet, "/api/v1/notifications", 7)
		items := decodeData[[]NotificationResponse](t, env)
		require.Len(t, items, 1)
		assert.Equal(t, "Your task 'your task' has been marked as completed.", items[0].Message)
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"eventType":`},
		{name: "unknown event type", body: `{"eventType":"TASK_ARCHIVED","taskId":"1","userId":7}`},
		{name: "missing user", body: `{"eventType":"TASK_CREATED","taskId":"1"}`},
	}

	for _, tt := range tests {
		t.Run("dead-letters "+tt.name, func(t *testing.T) {
			f := newFixture(t)

			err := f.mq.TaskEvent(context.Background(), taskMessage(tt.body))

			assert.NoError(t, err)
			pending, err := f.store.ListPendingDelivery(context.Background(), 0, 10)
			require.NoError(t, err)
			assert.Empty(t, pending)
			_, env := f.do(t, http.MethodGet, "/api/v1/notifications", 7)
			assert.Empty(t, decodeData[[]NotificationResponse](t, env))
		})
	}
}

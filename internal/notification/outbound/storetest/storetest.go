// Package storetest holds the behavior every notification store must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store is the notification store contract.
type Store interface {
	CreateNotification(ctx context.Context, n entity.Notification) (bool, error)
	GetNotification(ctx context.Context, id int64) (*entity.Notification, error)
	ListNotifications(ctx context.Context, filter entity.ListFilter) ([]entity.Notification, error)
	CountNotifications(ctx context.Context, filter entity.ListFilter) (int64, error)
	ListPendingDelivery(ctx context.Context, afterID int64, limit int) ([]entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, at time.Time) error
	MarkNotificationSent(ctx context.Context, id int64, at time.Time) error
	DeleteNotification(ctx context.Context, id int64) error
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func notification(id, userID int64, typ entity.Type, createdAt time.Time) entity.Notification {
	return entity.Notification{
		ID:        id,
		UserID:    userID,
		Title:     "Task Created",
		Message:   "Your task 'x' has been created successfully.",
		Type:      typ,
		TaskID:    "t-1",
		CreatedAt: createdAt,
	}
}

func ids(items []entity.Notification) []int64 {
	out := make([]int64, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func mustCreate(t *testing.T, s Store, n entity.Notification) {
	t.Helper()

	ok, err := s.CreateNotification(context.Background(), n)
	require.NoError(t, err)
	require.True(t, ok)
}

// Run exercises a store. open must return an empty store for each call.
func Run(t *testing.T, open func(t *testing.T) Store) {
	t.Run("create and get", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		n := notification(1, 7, entity.TypeTaskAssigned, base)
		n.DedupKey = "k:subject"
		mustCreate(t, s, n)

		got, err := s.GetNotification(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, n, *got)

		_, err = s.GetNotification(ctx, 2)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("dedup key", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		first := notification(1, 7, entity.TypeTaskCreated, base)
		first.DedupKey = "k:subject"
		mustCreate(t, s, first)

		dup := notification(2, 7, entity.TypeTaskCreated, base)
		dup.DedupKey = "k:subject"
		ok, err := s.CreateNotification(ctx, dup)
		require.NoError(t, err)
		assert.False(t, ok)

		mustCreate(t, s, notification(3, 7, entity.TypeTaskCreated, base))
		mustCreate(t, s, notification(4, 7, entity.TypeTaskCreated, base))

		count, err := s.CountNotifications(ctx, entity.ListFilter{UserID: 7})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("list and count", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		mustCreate(t, s, notification(1, 7, entity.TypeTaskCreated, base))
		mustCreate(t, s, notification(2, 7, entity.TypeTaskAssigned, base.Add(time.Minute)))
		mustCreate(t, s, notification(3, 7, entity.TypeTaskAssigned, base.Add(time.Minute)))
		mustCreate(t, s, notification(4, 7, entity.TypeTaskDueSoon, base.Add(-time.Minute)))
		mustCreate(t, s, notification(5, 8, entity.TypeTaskAssigned, base))
		require.NoError(t, s.MarkNotificationRead(ctx, 2, base))

		tests := []struct {
			name   string
			filter entity.ListFilter
			want   []int64
		}{
			{name: "all newest first", filter: entity.ListFilter{UserID: 7}, want: []int64{3, 2, 1, 4}},
			{name: "unread", filter: entity.ListFilter{UserID: 7, IsRead: lo.ToPtr(false)}, want: []int64{3, 1, 4}},
			{name: "read", filter: entity.ListFilter{UserID: 7, IsRead: lo.ToPtr(true)}, want: []int64{2}},
			{name: "by type", filter: entity.ListFilter{UserID: 7, Type: entity.TypeTaskAssigned}, want: []int64{3, 2}},
			{name: "page", filter: entity.ListFilter{UserID: 7, Limit: 2, Offset: 1}, want: []int64{2, 1}},
			{name: "past the end", filter: entity.ListFilter{UserID: 7, Limit: 2, Offset: 10}, want: []int64{}},
			{name: "other user", filter: entity.ListFilter{UserID: 9}, want: []int64{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				items, err := s.ListNotifications(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(items))

				if tt.filter.Limit == 0 {
					count, err := s.CountNotifications(ctx, tt.filter)
					require.NoError(t, err)
					assert.Equal(t, int64(len(tt.want)), count)
				}
			})
		}
	})

	t.Run("pending delivery keyset", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		for id := int64(1); id <= 5; id++ {
			mustCreate(t, s, notification(id, id, entity.TypeTaskCreated, base))
		}
		require.NoError(t, s.MarkNotificationSent(ctx, 2, base))

		page, err := s.ListPendingDelivery(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, ids(page))

		page, err = s.ListPendingDelivery(ctx, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 5}, ids(page))

		page, err = s.ListPendingDelivery(ctx, 5, 2)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("mark read and sent keep first timestamp", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		mustCreate(t, s, notification(1, 7, entity.TypeTaskCreated, base))

		first := base.Add(time.Minute)
		later := base.Add(time.Hour)
		require.NoError(t, s.MarkNotificationRead(ctx, 1, first))
		require.NoError(t, s.MarkNotificationRead(ctx, 1, later))
		require.NoError(t, s.MarkNotificationSent(ctx, 1, first))
		require.NoError(t, s.MarkNotificationSent(ctx, 1, later))

		got, err := s.GetNotification(ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.IsRead)
		assert.True(t, got.IsSent)
		require.NotNil(t, got.ReadAt)
		require.NotNil(t, got.SentAt)
		assert.True(t, first.Equal(*got.ReadAt))
		assert.True(t, first.Equal(*got.SentAt))

		assert.ErrorIs(t, s.MarkNotificationRead(ctx, 99, first), goerror.ErrNotFound)
		assert.ErrorIs(t, s.MarkNotificationSent(ctx, 99, first), goerror.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		mustCreate(t, s, notification(1, 7, entity.TypeTaskCreated, base))

		require.NoError(t, s.DeleteNotification(ctx, 1))
		assert.ErrorIs(t, s.DeleteNotification(ctx, 1), goerror.ErrNotFound)

		_, err := s.GetNotification(ctx, 1)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

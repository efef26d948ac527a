package usecase

import (
	"context"
	"math"
	"testing"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInbox(f *fixture) {
	f.seed(entity.Notification{ID: 1, UserID: 1, Type: entity.TypeTaskCreated, IsRead: true})
	f.seed(entity.Notification{ID: 2, UserID: 1, Type: entity.TypeTaskAssigned})
	f.seed(entity.Notification{ID: 3, UserID: 1, Type: entity.TypeTaskAssigned})
	f.seed(entity.Notification{ID: 4, UserID: 2, Type: entity.TypeTaskAssigned})
}

func ids(items []entity.Notification) []int64 {
	out := make([]int64, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func TestListNotifications(t *testing.T) {
	f := newFixture(t)
	seedInbox(f)
	ctx := asUser(1)

	all, err := f.uc.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, ids(all))

	unread, err := f.uc.ListUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(unread))

	count, err := f.uc.CountUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	byType, err := f.uc.ListNotificationsByType(ctx, ListByTypeInput{Type: "TASK_CREATED"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(byType))

	_, err = f.uc.ListNotificationsByType(ctx, ListByTypeInput{Type: "TASK_ARCHIVED"})
	assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))

	_, err = f.uc.ListNotifications(context.Background())
	assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(err))
}

func TestListNotificationsPaginated(t *testing.T) {
	tests := []struct {
		name      string
		in        ListPaginatedInput
		wantIDs   []int64
		wantPages int64
		wantCode  goerror.Code
	}{
		{name: "first page", in: ListPaginatedInput{Page: 0, Size: 2}, wantIDs: []int64{3, 2}, wantPages: 2},
		{name: "last page", in: ListPaginatedInput{Page: 1, Size: 2}, wantIDs: []int64{1}, wantPages: 2},
		{name: "past the end", in: ListPaginatedInput{Page: 5, Size: 2}, wantIDs: []int64{}, wantPages: 2},
		{name: "size too big", in: ListPaginatedInput{Size: 101}, wantCode: goerror.CodeInvalidInput},
		{name: "negative page", in: ListPaginatedInput{Page: -1, Size: 10}, wantCode: goerror.CodeInvalidInput},
		{name: "page that overflows the offset", in: ListPaginatedInput{Page: math.MaxInt, Size: 100}, wantCode: goerror.CodeInvalidInput},
		{name: "largest page", in: ListPaginatedInput{Page: 10_000_000, Size: 100}, wantIDs: []int64{}, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedInbox(f)

			out, err := f.uc.ListNotificationsPaginated(asUser(1), tt.in)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, goerror.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(out.Items))
			assert.Equal(t, int64(3), out.TotalElements)
			assert.Equal(t, tt.wantPages, out.TotalPages)
		})
	}
}

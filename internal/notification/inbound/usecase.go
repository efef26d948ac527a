package inbound

import (
	"context"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumeTaskEvent(ctx context.Context, in usecase.ConsumeTaskEventInput) error
	RejectTaskEvent(ctx context.Context, env usecase.Envelope, reason string, cause error) error
}

type ucSweeper interface {
	RetrySweep(ctx context.Context) (entity.SweepResult, error)
}

type uc interface {
	ucConsumer
	ucSweeper

	ListNotifications(ctx context.Context) ([]entity.Notification, error)
	ListNotificationsPaginated(ctx context.Context, in usecase.ListPaginatedInput) (*usecase.ListPaginatedOutput, error)
	ListUnreadNotifications(ctx context.Context) ([]entity.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int64, error)
	ListNotificationsByType(ctx context.Context, in usecase.ListByTypeInput) ([]entity.Notification, error)
	MarkNotificationRead(ctx context.Context, in usecase.MarkReadInput) (*entity.Notification, error)
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, in usecase.DeleteInput) error
	DeleteReadNotifications(ctx context.Context, in usecase.DeleteReadInput) (int64, error)
	ProcessUnsent(ctx context.Context) (entity.SweepResult, error)
}

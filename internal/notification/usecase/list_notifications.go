package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
)

type (
	// ListPaginatedInput bounds Page so Page*Size fits a 32-bit offset.
	ListPaginatedInput struct {
		Page int `validate:"gte=0,lte=10000000"`
		Size int `validate:"gte=1,lte=100"`
	}

	ListPaginatedOutput struct {
		Items         []entity.Notification
		Page          int
		Size          int
		TotalElements int64
		TotalPages    int64
	}

	ListByTypeInput struct {
		Type string `validate:"required,notification_type"`
	}
)

func (s *Usecase) ListNotifications(ctx context.Context) ([]entity.Notification, error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, entity.ListFilter{UserID: caller.UserID})
}

func (s *Usecase) ListNotificationsPaginated(ctx context.Context, in ListPaginatedInput) (*ListPaginatedOutput, error) {
	ctx, span := s.startSpan(ctx, "ListNotificationsPaginated")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	filter := entity.ListFilter{UserID: caller.UserID}
	total, err := s.repoDB.CountNotifications(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count notifications", "user_id", caller.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	filter.Limit = in.Size
	filter.Offset = in.Page * in.Size
	items, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListPaginatedOutput{
		Items:         items,
		Page:          in.Page,
		Size:          in.Size,
		TotalElements: total,
		TotalPages:    (total + int64(in.Size) - 1) / int64(in.Size),
	}, nil
}

func (s *Usecase) ListUnreadNotifications(ctx context.Context) ([]entity.Notification, error) {
	ctx, span := s.startSpan(ctx, "ListUnreadNotifications")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, entity.ListFilter{UserID: caller.UserID, IsRead: lo.ToPtr(false)})
}

func (s *Usecase) CountUnreadNotifications(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "CountUnreadNotifications")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return 0, err
	}

	count, err := s.repoDB.CountNotifications(ctx, entity.ListFilter{UserID: caller.UserID, IsRead: lo.ToPtr(false)})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count unread notifications", "user_id", caller.UserID, "error", err)
		return 0, goerror.NewServer(err)
	}

	return count, nil
}

func (s *Usecase) ListNotificationsByType(ctx context.Context, in ListByTypeInput) ([]entity.Notification, error) {
	ctx, span := s.startSpan(ctx, "ListNotificationsByType")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.list(ctx, entity.ListFilter{UserID: caller.UserID, Type: entity.TypeFromString(in.Type)})
}

func (s *Usecase) list(ctx context.Context, filter entity.ListFilter) ([]entity.Notification, error) {
	items, err := s.repoDB.ListNotifications(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list notifications", "user_id", filter.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
)

type (
	MarkReadInput struct {
		ID int64 `validate:"required,gt=0"`
	}

	DeleteInput struct {
		ID int64 `validate:"required,gt=0"`
	}

	DeleteReadInput struct {
		Status string `validate:"required,oneof=read"`
	}
)

// MarkNotificationRead marks one of the caller's notifications read. ReadAt
// keeps its first value on repeated calls.
func (s *Usecase) MarkNotificationRead(ctx context.Context, in MarkReadInput) (*entity.Notification, error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationRead")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	n, err := s.ownedNotification(ctx, caller.UserID, in.ID)
	if err != nil {
		return nil, err
	}

	if n.IsRead {
		return n, nil
	}

	now := s.now()
	if err := s.repoDB.MarkNotificationRead(ctx, n.ID, now); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark notification read", "notification_id", n.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	updated, err := s.repoDB.GetNotification(ctx, n.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get notification", "notification_id", n.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return updated, nil
}

// MarkAllNotificationsRead marks each unread notification of the caller
// independently and returns how many were updated.
func (s *Usecase) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "MarkAllNotificationsRead")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return 0, err
	}

	items, err := s.list(ctx, entity.ListFilter{UserID: caller.UserID, IsRead: lo.ToPtr(false)})
	if err != nil {
		return 0, err
	}

	now := s.now()
	var updated int64
	for _, n := range items {
		if err := s.repoDB.MarkNotificationRead(ctx, n.ID, now); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark notification read", "notification_id", n.ID, "updated", updated, "error", err)
			return updated, goerror.NewServer(err)
		}
		updated++
	}

	return updated, nil
}

func (s *Usecase) DeleteNotification(ctx context.Context, in DeleteInput) error {
	ctx, span := s.startSpan(ctx, "DeleteNotification")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if _, err := s.ownedNotification(ctx, caller.UserID, in.ID); err != nil {
		return err
	}

	err = s.repoDB.DeleteNotification(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("notification not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete notification", "notification_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// DeleteReadNotifications deletes each read notification of the caller
// independently and returns how many were removed.
func (s *Usecase) DeleteReadNotifications(ctx context.Context, in DeleteReadInput) (int64, error) {
	ctx, span := s.startSpan(ctx, "DeleteReadNotifications")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.validator.Validate(in); err != nil {
		return 0, goerror.NewInvalidInput(err)
	}

	items, err := s.list(ctx, entity.ListFilter{UserID: caller.UserID, IsRead: lo.ToPtr(true)})
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, n := range items {
		err := s.repoDB.DeleteNotification(ctx, n.ID)
		if errors.Is(err, goerror.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo delete notification", "notification_id", n.ID, "deleted", deleted, "error", err)
			return deleted, goerror.NewServer(err)
		}
		deleted++
	}

	return deleted, nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/auth"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
)

func (s *Usecase) requireCaller(ctx context.Context) (*auth.Caller, error) {
	caller := auth.GetCaller(ctx)
	if caller == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return caller, nil
}

// ownedNotification loads id and checks the caller owns it.
func (s *Usecase) ownedNotification(ctx context.Context, callerID, id int64) (*entity.Notification, error) {
	n, err := s.repoDB.GetNotification(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("notification not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get notification", "notification_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if n.UserID != callerID {
		slog.WarnContext(ctx, "notification owner mismatch", "notification_id", id, "caller_id", callerID)
		return nil, goerror.NewBusiness("unauthorized access to notification", goerror.CodeForbidden)
	}

	return n, nil
}

// requireAdmin allows anyone authenticated when no enforcer is configured.
func (s *Usecase) requireAdmin(ctx context.Context) error {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return err
	}
	if s.enforcer == nil {
		return nil
	}

	ok, err := s.enforcer.Enforce(strconv.FormatInt(caller.UserID, 10), "notifications", "sweep")
	if err != nil {
		slog.ErrorContext(ctx, "failed to enforce sweep permission", "user_id", caller.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		return goerror.NewBusiness("admin permission required", goerror.CodeForbidden)
	}

	return nil
}

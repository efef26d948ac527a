package inbound

import (
	"github.com/shandysiswandi/gonotify/internal/notification/usecase"
	"github.com/shandysiswandi/gonotify/internal/pkg/router"
)

const defaultPageSize = 20

type HTTPEndpoint struct {
	uc uc
}

// ListNotifications returns all notifications of the caller, newest first.
// @Summary List notifications
// @Description Lists every notification of the caller ordered by creation time, newest first.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Success 200 {object} router.successResponse{data=[]NotificationResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications [get]
func (h *HTTPEndpoint) ListNotifications(r *router.Request) (any, error) {
	items, err := h.uc.ListNotifications(r.Context())
	if err != nil {
		return nil, err
	}

	return toNotificationResponses(items), nil
}

// ListNotificationsPaginated returns one page of the caller's notifications.
// @Summary List notifications by page
// @Description Returns one zero-based page of the caller's notifications with paging metadata.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size, 1 to 100" default(20)
// @Success 200 {object} router.successResponse{data=NotificationPageResponse}
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/paginated [get]
func (h *HTTPEndpoint) ListNotificationsPaginated(r *router.Request) (any, error) {
	page, err := r.QueryInt("page", 0)
	if err != nil {
		return nil, err
	}
	size, err := r.QueryInt("size", defaultPageSize)
	if err != nil {
		return nil, err
	}

	out, err := h.uc.ListNotificationsPaginated(r.Context(), usecase.ListPaginatedInput{Page: page, Size: size})
	if err != nil {
		return nil, err
	}

	return NotificationPageResponse{
		Items:         toNotificationResponses(out.Items),
		Page:          out.Page,
		Size:          out.Size,
		TotalElements: out.TotalElements,
		TotalPages:    out.TotalPages,
	}, nil
}

// ListUnreadNotifications returns the caller's unread notifications.
// @Summary List unread notifications
// @Description Lists the caller's unread notifications, newest first.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Success 200 {object} router.successResponse{data=[]NotificationResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/unread [get]
func (h *HTTPEndpoint) ListUnreadNotifications(r *router.Request) (any, error) {
	items, err := h.uc.ListUnreadNotifications(r.Context())
	if err != nil {
		return nil, err
	}

	return toNotificationResponses(items), nil
}

// CountUnreadNotifications returns how many notifications the caller has not read.
// @Summary Count unread notifications
// @Description Counts the caller's unread notifications.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Success 200 {object} router.successResponse{data=UnreadCountResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/count/unread [get]
func (h *HTTPEndpoint) CountUnreadNotifications(r *router.Request) (any, error) {
	count, err := h.uc.CountUnreadNotifications(r.Context())
	if err != nil {
		return nil, err
	}

	return UnreadCountResponse{UnreadCount: count}, nil
}

// ListNotificationsByType returns the caller's notifications of one type.
// @Summary List notifications by type
// @Description Lists the caller's notifications whose type matches the path value.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Param type path string true "Notification type" Enums(TASK_CREATED, TASK_UPDATED, TASK_ASSIGNED, TASK_COMPLETED, TASK_DELETED, TASK_DUE_SOON)
// @Success 200 {object} router.successResponse{data=[]NotificationResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Unknown notification type"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/type/{type} [get]
func (h *HTTPEndpoint) ListNotificationsByType(r *router.Request) (any, error) {
	items, err := h.uc.ListNotificationsByType(r.Context(), usecase.ListByTypeInput{Type: r.Param("type")})
	if err != nil {
		return nil, err
	}

	return toNotificationResponses(items), nil
}

// MarkNotificationRead marks one of the caller's notifications as read.
// @Summary Mark notification read
// @Description Marks the notification as read. read_at is stamped on the first call only.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Param id path int true "Notification id"
// @Success 200 {object} router.successResponse{data=NotificationResponse}
// @Failure 400 {object} router.errorResponse "Invalid id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Not the owner"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/{id}/read [patch]
func (h *HTTPEndpoint) MarkNotificationRead(r *router.Request) (any, error) {
	id, err := r.ParamInt64("id")
	if err != nil {
		return nil, err
	}

	n, err := h.uc.MarkNotificationRead(r.Context(), usecase.MarkReadInput{ID: id})
	if err != nil {
		return nil, err
	}

	return toNotificationResponse(*n), nil
}

// MarkAllNotificationsRead marks every unread notification of the caller as read.
// @Summary Mark all notifications read
// @Description Marks every unread notification of the caller as read and reports how many changed.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Success 200 {object} router.successResponse{data=UpdatedResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/read-all [put]
func (h *HTTPEndpoint) MarkAllNotificationsRead(r *router.Request) (any, error) {
	updated, err := h.uc.MarkAllNotificationsRead(r.Context())
	if err != nil {
		return nil, err
	}

	return UpdatedResponse{Updated: updated}, nil
}

// DeleteNotification deletes one of the caller's notifications.
// @Summary Delete notification
// @Description Deletes the notification when the caller owns it.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Param id path int true "Notification id"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Not the owner"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/{id} [delete]
func (h *HTTPEndpoint) DeleteNotification(r *router.Request) (any, error) {
	id, err := r.ParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.DeleteNotification(r.Context(), usecase.DeleteInput{ID: id})
}

// DeleteReadNotifications deletes every read notification of the caller.
// @Summary Delete read notifications
// @Description Deletes the caller's read notifications. status must be "read".
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Param status query string true "Only read is accepted" Enums(read)
// @Success 200 {object} router.successResponse{data=DeletedResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications [delete]
func (h *HTTPEndpoint) DeleteReadNotifications(r *router.Request) (any, error) {
	deleted, err := h.uc.DeleteReadNotifications(r.Context(), usecase.DeleteReadInput{Status: r.Query("status")})
	if err != nil {
		return nil, err
	}

	return DeletedResponse{Deleted: deleted}, nil
}

// ProcessUnsent runs one retry sweep over notifications not yet delivered.
// @Summary Process unsent notifications
// @Description Runs a retry sweep now. Admin only when authz.admin_user_ids is set; skipped is true when a sweep is already running.
// @Tags Notification
// @Security BearerAuth
// @Param X-User-Id header int false "Caller id when auth.mode is header"
// @Produce json
// @Success 200 {object} router.successResponse{data=SweepResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Not an admin"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications/process-unsent [post]
func (h *HTTPEndpoint) ProcessUnsent(r *router.Request) (any, error) {
	res, err := h.uc.ProcessUnsent(r.Context())
	if err != nil {
		return nil, err
	}

	return SweepResponse{
		Attempted: res.Attempted,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Skipped:   res.Skipped,
	}, nil
}

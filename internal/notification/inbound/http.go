package inbound

import (
	"github.com/shandysiswandi/gonotify/internal/pkg/router"
)

// RegisterHTTPEndpoint mounts the inbox routes. httprouter keeps one tree per
// method and rejects a static segment next to a wildcard, so mark-read is
// PATCH (PUT owns /read-all) and delete-read is DELETE on the collection with
// status=read (DELETE owns /:id).
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/notifications", end.ListNotifications)
	r.GET("/api/v1/notifications/paginated", end.ListNotificationsPaginated)
	r.GET("/api/v1/notifications/unread", end.ListUnreadNotifications)
	r.GET("/api/v1/notifications/count/unread", end.CountUnreadNotifications)
	r.GET("/api/v1/notifications/type/:type", end.ListNotificationsByType)
	r.PATCH("/api/v1/notifications/:id/read", end.MarkNotificationRead)
	r.PUT("/api/v1/notifications/read-all", end.MarkAllNotificationsRead)
	r.DELETE("/api/v1/notifications/:id", end.DeleteNotification)
	r.DELETE("/api/v1/notifications", end.DeleteReadNotifications)
	r.POST("/api/v1/notifications/process-unsent", end.ProcessUnsent)
}

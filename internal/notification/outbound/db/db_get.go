package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
)

const notificationColumns = `id, user_id, title, message, type, COALESCE(task_id, ''), is_read, is_sent,
COALESCE(dedup_key, ''), created_at, sent_at, read_at`

func scanNotification(row pgx.Row) (entity.Notification, error) {
	var (
		n   entity.Notification
		typ string
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.TaskID, &n.IsRead, &n.IsSent,
		&n.DedupKey, &n.CreatedAt, &n.SentAt, &n.ReadAt)
	if err != nil {
		return entity.Notification{}, err
	}

	n.Type = entity.TypeFromString(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	n.SentAt = utcPtr(n.SentAt)
	n.ReadAt = utcPtr(n.ReadAt)
	return n, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *DB) GetNotification(ctx context.Context, id int64) (_ *entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "GetNotification")
	defer func() { s.endSpan(span, err) }()

	n, err := scanNotification(s.conn.QueryRow(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = $1", id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &n, nil
}

// filterWhere renders the WHERE clause of f starting at placeholder $1.
func filterWhere(f entity.ListFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.UserID}

	if f.IsRead != nil {
		args = append(args, *f.IsRead)
		conds = append(conds, fmt.Sprintf("is_read = $%d", len(args)))
	}
	if f.Type.Valid() {
		args = append(args, f.Type.String())
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *DB) ListNotifications(ctx context.Context, f entity.ListFilter) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer func() { s.endSpan(span, err) }()

	where, args := filterWhere(f)
	query := "SELECT " + notificationColumns + " FROM notifications" + where + " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return s.queryNotifications(ctx, query, args...)
}

func (s *DB) CountNotifications(ctx context.Context, f entity.ListFilter) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountNotifications")
	defer func() { s.endSpan(span, err) }()

	where, args := filterWhere(f)

	var count int64
	err = s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM notifications"+where, args...).Scan(&count)
	return count, s.mapError(err)
}

// ListPendingDelivery returns undelivered notifications with id > afterID in id order.
func (s *DB) ListPendingDelivery(ctx context.Context, afterID int64, limit int) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "ListPendingDelivery")
	defer func() { s.endSpan(span, err) }()

	return s.queryNotifications(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE is_sent = FALSE AND id > $1 ORDER BY id LIMIT $2",
		afterID, limit)
}

func (s *DB) queryNotifications(ctx context.Context, query string, args ...any) ([]entity.Notification, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		items = append(items, n)
	}

	return items, s.mapError(rows.Err())
}

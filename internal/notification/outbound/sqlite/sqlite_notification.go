package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
)

const selectNotification = `SELECT id, user_id, title, message, type, task_id, is_read, is_sent,
dedup_key, created_at, sent_at, read_at FROM notifications`

// CreateNotification inserts n. A row with the same dedup key makes it a no-op
// that reports false.
func (s *Store) CreateNotification(ctx context.Context, n entity.Notification) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	res, err := s.db.ExecContext(ctx, `
INSERT INTO notifications (id, user_id, title, message, type, task_id, is_read, is_sent, dedup_key, created_at, sent_at, read_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (dedup_key) DO NOTHING`,
		n.ID, n.UserID, n.Title, n.Message, n.Type.String(), nullString(n.TaskID),
		n.IsRead, n.IsSent, nullString(n.DedupKey), n.CreatedAt.UnixNano(), nullNanos(n.SentAt), nullNanos(n.ReadAt),
	)
	if err != nil {
		return false, s.mapError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (s *Store) GetNotification(ctx context.Context, id int64) (_ *entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "GetNotification")
	defer func() { s.endSpan(span, err) }()

	var row notificationRow
	if err = s.db.GetContext(ctx, &row, selectNotification+" WHERE id = ?", id); err != nil {
		return nil, s.mapError(err)
	}

	n := row.toEntity()
	return &n, nil
}

func filterWhere(f entity.ListFilter) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{f.UserID}

	if f.IsRead != nil {
		conds = append(conds, "is_read = ?")
		args = append(args, *f.IsRead)
	}
	if f.Type.Valid() {
		conds = append(conds, "type = ?")
		args = append(args, f.Type.String())
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) ListNotifications(ctx context.Context, f entity.ListFilter) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer func() { s.endSpan(span, err) }()

	where, args := filterWhere(f)
	query := selectNotification + where + " ORDER BY created_at DESC, id DESC"
	switch {
	case f.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	case f.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, f.Offset)
	}

	return s.selectNotifications(ctx, query, args...)
}

func (s *Store) CountNotifications(ctx context.Context, f entity.ListFilter) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountNotifications")
	defer func() { s.endSpan(span, err) }()

	where, args := filterWhere(f)

	var count int64
	err = s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM notifications"+where, args...)
	return count, s.mapError(err)
}

// ListPendingDelivery returns undelivered notifications with id > afterID in id order.
func (s *Store) ListPendingDelivery(ctx context.Context, afterID int64, limit int) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "ListPendingDelivery")
	defer func() { s.endSpan(span, err) }()

	return s.selectNotifications(ctx, selectNotification+" WHERE is_sent = 0 AND id > ? ORDER BY id LIMIT ?", afterID, limit)
}

func (s *Store) selectNotifications(ctx context.Context, query string, args ...any) ([]entity.Notification, error) {
	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, s.mapError(err)
	}

	items := make([]entity.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// MarkNotificationRead sets is_read and keeps the first read_at.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationRead")
	defer func() { s.endSpan(span, err) }()

	return s.execOne(ctx, "UPDATE notifications SET is_read = 1, read_at = COALESCE(read_at, ?) WHERE id = ?", at.UnixNano(), id)
}

// MarkNotificationSent sets is_sent and keeps the first sent_at.
func (s *Store) MarkNotificationSent(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationSent")
	defer func() { s.endSpan(span, err) }()

	return s.execOne(ctx, "UPDATE notifications SET is_sent = 1, sent_at = COALESCE(sent_at, ?) WHERE id = ?", at.UnixNano(), id)
}

func (s *Store) DeleteNotification(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteNotification")
	defer func() { s.endSpan(span, err) }()

	return s.execOne(ctx, "DELETE FROM notifications WHERE id = ?", id)
}

// execOne runs a single-row write and reports ErrNotFound when nothing matched.
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return s.mapError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

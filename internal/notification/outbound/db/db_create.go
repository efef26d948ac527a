package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
)

const queryCreateNotification = `
INSERT INTO notifications (id, user_id, title, message, type, task_id, is_read, is_sent, dedup_key, created_at, sent_at, read_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6::text, ''), $7, $8, NULLIF($9::text, ''), $10, $11, $12)
ON CONFLICT (dedup_key) WHERE dedup_key IS NOT NULL DO NOTHING
RETURNING id`

// CreateNotification inserts n. A row with the same dedup key makes it a no-op
// that reports false.
func (s *DB) CreateNotification(ctx context.Context, n entity.Notification) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, queryCreateNotification,
		n.ID, n.UserID, n.Title, n.Message, n.Type.String(), n.TaskID,
		n.IsRead, n.IsSent, n.DedupKey, n.CreatedAt, n.SentAt, n.ReadAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.mapError(err)
	}

	return true, nil
}

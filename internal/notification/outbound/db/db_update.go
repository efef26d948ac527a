package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
)

// MarkNotificationRead sets is_read and keeps the first read_at.
func (s *DB) MarkNotificationRead(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		"UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $2) WHERE id = $1", id, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// MarkNotificationSent sets is_sent and keeps the first sent_at. It is an
// unconditional set, safe to repeat from concurrent sweeps.
func (s *DB) MarkNotificationSent(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationSent")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		"UPDATE notifications SET is_sent = TRUE, sent_at = COALESCE(sent_at, $2) WHERE id = $1", id, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

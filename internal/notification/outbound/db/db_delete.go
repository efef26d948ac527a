package db

import (
	"context"

	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
)

func (s *DB) DeleteNotification(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteNotification")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is the SQLite notification store for single-node deployments.
type Store struct {
	db  *sqlx.DB
	ins instrument.Instrumentation
}

// Open opens (or creates) the database at path, enables WAL and applies
// pending migrations.
func Open(ctx context.Context, path string, ins instrument.Instrumentation) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, ins: ins}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	var tableCount int
	err := s.db.GetContext(ctx, &tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	current := 0
	if tableCount > 0 {
		if err := s.db.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

func (s *Store) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return goerror.ErrConflict
		}
	}

	return err
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.outbound.sqlite").Start(ctx, name)
}

func (s *Store) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type notificationRow struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Title     string         `db:"title"`
	Message   string         `db:"message"`
	Type      string         `db:"type"`
	TaskID    sql.NullString `db:"task_id"`
	IsRead    bool           `db:"is_read"`
	IsSent    bool           `db:"is_sent"`
	DedupKey  sql.NullString `db:"dedup_key"`
	CreatedAt int64          `db:"created_at"`
	SentAt    sql.NullInt64  `db:"sent_at"`
	ReadAt    sql.NullInt64  `db:"read_at"`
}

func (r notificationRow) toEntity() entity.Notification {
	return entity.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      entity.TypeFromString(r.Type),
		TaskID:    r.TaskID.String,
		IsRead:    r.IsRead,
		IsSent:    r.IsSent,
		CreatedAt: fromNanos(r.CreatedAt),
		SentAt:    fromNullNanos(r.SentAt),
		ReadAt:    fromNullNanos(r.ReadAt),
		DedupKey:  r.DedupKey.String,
	}
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func fromNullNanos(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromNanos(v.Int64)
	return &t
}

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

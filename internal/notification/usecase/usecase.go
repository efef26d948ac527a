package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/clock"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

var (
	// ErrDeliveryFailed wraps a channel failure. It never reaches API callers or the stream.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrMappingSkipped marks an event that produced no notifications.
	ErrMappingSkipped = errors.New("notification mapping skipped")
)

type repoDB interface {
	CreateNotification(ctx context.Context, n entity.Notification) (bool, error)
	GetNotification(ctx context.Context, id int64) (*entity.Notification, error)
	ListNotifications(ctx context.Context, filter entity.ListFilter) ([]entity.Notification, error)
	CountNotifications(ctx context.Context, filter entity.ListFilter) (int64, error)
	ListPendingDelivery(ctx context.Context, afterID int64, limit int) ([]entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, at time.Time) error
	MarkNotificationSent(ctx context.Context, id int64, at time.Time) error
	DeleteNotification(ctx context.Context, id int64) error
}

type repoSender interface {
	Send(ctx context.Context, recipientUserID int64, subject, body string) error
}

type repoDeadLetter interface {
	Put(ctx context.Context, dl entity.DeadLetter) error
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

type Usecase struct {
	repoDB         repoDB
	repoSender     repoSender
	repoDeadLetter repoDeadLetter
	tracker        idempotency.Tracker
	enforcer       enforcer
	cfg            config.Config
	uid            uid.NumberID
	uuid           uid.StringID
	clock          clock.Clocker
	validator      validator.Validator
	ins            instrument.Instrumentation
	metrics        *metrics
	sweeping       atomic.Bool
}

type Dependency struct {
	RepoDB         repoDB
	RepoSender     repoSender
	RepoDeadLetter repoDeadLetter
	// Tracker is optional; without it the store's dedup key is the only guard.
	Tracker idempotency.Tracker
	// Enforcer is optional; without it the sweep trigger is open to any caller.
	Enforcer   enforcer
	Config     config.Config
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:         dep.RepoDB,
		repoSender:     dep.RepoSender,
		repoDeadLetter: dep.RepoDeadLetter,
		tracker:        dep.Tracker,
		enforcer:       dep.Enforcer,
		cfg:            dep.Config,
		uid:            dep.UID,
		uuid:           dep.UUID,
		clock:          dep.Clock,
		validator:      dep.Validator,
		ins:            dep.Instrument,
		metrics:        newMetrics(dep.Instrument.Meter("notification.usecase")),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Usecase) secondsOr(key string, def time.Duration) time.Duration {
	if d := s.cfg.GetSecond(key); d > 0 {
		return d
	}
	return def
}

func (s *Usecase) intOr(key string, def int) int {
	if n := s.cfg.GetInt(key); n > 0 {
		return n
	}
	return def
}

package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gonotify/internal/notification/inbound"
	"github.com/shandysiswandi/gonotify/internal/notification/outbound/db"
	"github.com/shandysiswandi/gonotify/internal/notification/outbound/deadletter"
	"github.com/shandysiswandi/gonotify/internal/notification/outbound/email"
	"github.com/shandysiswandi/gonotify/internal/notification/outbound/sqlite"
	"github.com/shandysiswandi/gonotify/internal/notification/usecase"
	"github.com/shandysiswandi/gonotify/internal/pkg/clock"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goroutine"
	"github.com/shandysiswandi/gonotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/mail"
	"github.com/shandysiswandi/gonotify/internal/pkg/messaging"
	"github.com/shandysiswandi/gonotify/internal/pkg/router"
	"github.com/shandysiswandi/gonotify/internal/pkg/storage"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
)

var (
	ErrStorageRequired   = errors.New("notification: storage dead letter requires storage.driver")
	ErrMessagingRequired = errors.New("notification: messaging dead letter requires messaging.driver")
)

type Dependency struct {
	Ctx context.Context
	// DBConn selects the Postgres store. When nil the SQLite store at
	// database.sqlite.path is used.
	DBConn     *pgxpool.Pool
	Messaging  messaging.Messaging
	Tracker    idempotency.Tracker
	Storage    storage.Storage
	Enforcer   *casbin.Enforcer
	Config     config.Config
	Instrument instrument.Instrumentation
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Router     *router.Router
	Mail       mail.Mail
}

// Module owns the resources the notification module opened itself.
type Module struct {
	stops []func(context.Context) error
}

// Stop stops the sweep scheduler and closes the SQLite store, in that order.
func (m *Module) Stop(ctx context.Context) error {
	if m == nil {
		return nil
	}

	var errs []error
	for _, stop := range m.stops {
		errs = append(errs, stop(ctx))
	}
	return errors.Join(errs...)
}

func New(dep Dependency) (*Module, error) {
	m := &Module{}

	ucDep := usecase.Dependency{
		RepoSender: email.New(dep.Mail, dep.Config.GetString("mail.recipient_template"), dep.Instrument),
		Tracker:    dep.Tracker,
		Config:     dep.Config,
		UID:        dep.UID,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	}
	if dep.Enforcer != nil {
		ucDep.Enforcer = dep.Enforcer
	}
	if err := setRepoDeadLetter(dep, &ucDep); err != nil {
		return nil, err
	}
	if err := m.setRepoDB(dep, &ucDep); err != nil {
		return nil, err
	}
	uc := usecase.NewNotification(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	if dep.Ctx == nil {
		return m, nil
	}

	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	stopJob, err := inbound.RegisterSweepJob(dep.Ctx, dep.Config, dep.Goroutine, dep.DBConn, uc, dep.Instrument)
	if err != nil {
		//nolint:errcheck,gosec // already failing
		m.Stop(context.Background())
		return nil, err
	}
	if stopJob != nil {
		// the scheduler must stop before the store closes
		m.stops = append([]func(context.Context) error{stopJob}, m.stops...)
	}

	return m, nil
}

func (m *Module) setRepoDB(dep Dependency, ucDep *usecase.Dependency) error {
	ctx := dep.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if dep.DBConn != nil {
		store := db.NewDB(dep.DBConn, dep.Instrument)
		if dep.Config.GetBool("database.auto_migrate") {
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate notification schema: %w", err)
			}
		}
		ucDep.RepoDB = store
		return nil
	}

	path := dep.Config.GetString("database.sqlite.path")
	if path == "" {
		path = "notifications.db"
	}
	store, err := sqlite.Open(ctx, path, dep.Instrument)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "notification store on sqlite", "path", path)

	m.stops = append(m.stops, func(context.Context) error { return store.Close() })
	ucDep.RepoDB = store
	return nil
}

func setRepoDeadLetter(dep Dependency, ucDep *usecase.Dependency) error {
	switch driver := dep.Config.GetString("modules.notification.dead_letter.driver"); driver {
	case deadletter.DriverLog, "":
		ucDep.RepoDeadLetter = deadletter.Log{}
	case deadletter.DriverStorage:
		if dep.Storage == nil {
			return ErrStorageRequired
		}
		ucDep.RepoDeadLetter = deadletter.NewStorage(dep.Storage, dep.Config.GetString("modules.notification.dead_letter.prefix"), dep.Instrument)
	case deadletter.DriverMessaging:
		if dep.Messaging == nil {
			return ErrMessagingRequired
		}
		topic := dep.Config.GetString("modules.notification.dead_letter.topic")
		if topic == "" {
			topic = inbound.ConsumerTopic(dep.Config) + ".dlq"
		}
		ucDep.RepoDeadLetter = deadletter.NewMessaging(dep.Messaging, topic, dep.Instrument)
	default:
		return fmt.Errorf("notification: unknown dead letter driver %q", driver)
	}
	return nil
}

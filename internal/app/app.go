package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gonotify/internal/notification"
	"github.com/shandysiswandi/gonotify/internal/pkg/clock"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goroutine"
	"github.com/shandysiswandi/gonotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/jwt"
	"github.com/shandysiswandi/gonotify/internal/pkg/mail"
	"github.com/shandysiswandi/gonotify/internal/pkg/messaging"
	"github.com/shandysiswandi/gonotify/internal/pkg/router"
	"github.com/shandysiswandi/gonotify/internal/pkg/storage"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources, each optional except the notification store
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	tracker   idempotency.Tracker
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	// modules
	notification *notification.Module

	// run on Stop, last opened first
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()

	return app
}

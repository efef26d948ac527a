package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gonotify/internal/notification"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.notification.enabled") {
		slog.Warn("module notification disabled")
		return
	}

	mod, err := notification.New(notification.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		Messaging:  a.messaging,
		Tracker:    a.tracker,
		Storage:    a.storage,
		Enforcer:   a.casbin,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Goroutine:  a.goroutine,
		Validator:  a.validator,
		Router:     a.router,
		Mail:       a.mail,
	})
	if err != nil {
		slog.Error("failed to init module notification", "error", err)
		os.Exit(1)
	}
	a.notification = mod
}

package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 15 * time.Second

// Start serves HTTP in the background. The returned channel is closed when a
// termination signal arrives, after the root context has been canceled so
// the consumer and the sweep stop taking new work.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-sigCtx.Done()
		slog.Info("termination signal received")
		a.cancel()
		close(done)
	}()

	return done
}

// ShutdownTimeout bounds Stop. It reads app.server.shutdown_timeout_seconds.
func (a *App) ShutdownTimeout() time.Duration {
	if d := a.config.GetSecond("app.server.shutdown_timeout_seconds"); d > 0 {
		return d
	}
	return defaultShutdownTimeout
}

// Stop drains in dependency order: HTTP first, then background tasks, then
// the notification module (sweep scheduler, SQLite store), then shared
// clients. Failures are logged and do not stop later steps.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{name: "HTTP Server", fn: a.httpServer.Shutdown},
		{name: "Background Tasks", fn: func(context.Context) error { return a.goroutine.Wait() }},
		{name: "Notification", fn: a.notification.Stop},
	}
	steps = append(steps, a.closers...)

	for _, step := range steps {
		start := time.Now()
		if err := step.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "shutdown step failed", "name", step.name, "error", err)
			continue
		}
		slog.InfoContext(ctx, "shutdown step done", "name", step.name, "took", time.Since(start).String())
	}
}

// Package goroutine runs the service's long-lived background tasks, such as
// event consumers and the sweep ticker, in one bounded group that shutdown can
// wait on.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/shandysiswandi/gonotify/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by the CPU count when NewManager receives
// a non-positive limit.
const DefaultMaxGoroutine int = 100

// Task is a unit of background work. It should return when ctx is done.
type Task func(ctx context.Context) error

// Manager bounds how many tasks run at once and collects their errors.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu     sync.Mutex
	closed bool
	errs   []error
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, maxGoroutine)}
}

// Go starts task under name and reports whether it was started. A task is
// refused once Wait has been called, when every slot is taken, or when ctx is
// already done. Errors are kept for Wait, prefixed with name.
func (g *Manager) Go(ctx context.Context, name string, task Task) bool {
	if g == nil {
		return false
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.WarnContext(ctx, "goroutine manager closed, task refused", "task", name)
		return false
	}
	if ctx.Err() != nil {
		g.mu.Unlock()
		slog.WarnContext(ctx, "task not started", "task", name, "because", ctx.Err())
		return false
	}
	select {
	case g.slots <- struct{}{}:
	default:
		g.mu.Unlock()
		slog.WarnContext(ctx, "goroutine limit reached, task refused", "task", name, "limit", cap(g.slots))
		return false
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		defer func() { <-g.slots }()
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic in background task", append([]any{"task", name}, stacktrace.PanicAttrs(rvr)...)...)
			}
		}()

		if err := task(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	}()

	return true
}

// Wait closes the manager to new tasks, blocks until running tasks return and
// joins their errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

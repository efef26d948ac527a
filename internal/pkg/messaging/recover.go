package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/gonotify/internal/pkg/stacktrace"
)

// dispatch runs handler on a context detached from consume cancellation and
// turns a panic into an error.
func dispatch(ctx context.Context, kind string, handler Handler, msg Message) error {
	hctx := context.WithoutCancel(ctx)
	return callHandlerWithRecover(hctx, kind, func() error {
		return handler(hctx, msg)
	})
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler", append([]any{"kind", kind}, stacktrace.PanicAttrs(rvr)...)...)
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}

// Package stacktrace condenses a panicking goroutine's stack into the frames
// that belong to this module.
package stacktrace

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

const (
	maxDepth = 64
	marker   = "/internal/"
	self     = "/internal/pkg/stacktrace/"
)

// Frames walks the caller's stack and returns "internal/<pkg>/<file>.go:<line>"
// for every module frame, innermost first. skip has the meaning of
// runtime.Callers with 0 identifying the caller of Frames.
func Frames(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}

	var out []string
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if idx := strings.Index(frame.File, marker); idx >= 0 && !strings.Contains(frame.File, self) {
			out = append(out, frame.File[idx+1:]+":"+strconv.Itoa(frame.Line))
		}
		if !more {
			break
		}
	}
	return out
}

// PanicAttrs builds slog key/value pairs for a recovered value. Call it from
// the deferred function that recovered; the full stack is attached when no
// module frame is found.
func PanicAttrs(rvr any) []any {
	attrs := []any{"panic", fmt.Sprint(rvr)}
	if frames := Frames(1); len(frames) > 0 {
		return append(attrs, "stack", frames)
	}
	return append(attrs, "stack", string(debug.Stack()))
}

package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/stacktrace"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is echoed on every response and attached to logs.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is read when the gateway sends no correlation id.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// middlewareRecoverer answers 500 with the standard error envelope when a
// handler panics. http.ErrAbortHandler is re-raised for net/http.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel compared by identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic while serving request",
				append([]any{"method", r.Method, "path", r.URL.Path}, stacktrace.PanicAttrs(rvr)...)...)
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// middlewareClientIP rewrites RemoteAddr to the client address reported by
// the gateway. Invalid or missing forwarding headers leave the peer address,
// stripped of its port.
func middlewareClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if addr, ok := clientIP(r); ok {
			r.RemoteAddr = addr.String()
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) (netip.Addr, bool) {
	forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{
		r.Header.Get("True-Client-IP"),
		r.Header.Get("X-Real-IP"),
		forwarded,
	} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.Unmap(), true
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// middlewareCorrelationID propagates the caller's correlation id, or mints
// one, so an HTTP mutation can be matched with the logs it produced.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := lo.CoalesceOrEmpty(
				sanitizeCorrelationID(r.Header.Get(HeaderCorrelationID)),
				sanitizeCorrelationID(r.Header.Get(HeaderRequestID)),
			)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}
			if cid == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(HeaderCorrelationID, cid)
			next.ServeHTTP(w, r.WithContext(instrument.SetCorrelationID(r.Context(), cid)))
		})
	}
}

// sanitizeCorrelationID rejects values that could split a log line or a
// response header and caps the length.
func sanitizeCorrelationID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}

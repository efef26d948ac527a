package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder remembers what the handler wrote. Bodies are not kept since
// notification payloads carry user content.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// SetError is called by Router.endpoint with the handler error.
func (w *statusRecorder) SetError(err error) { w.err = err }

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func maskHeaders(headers http.Header, keys map[string]struct{}) http.Header {
	if len(keys) == 0 {
		return headers
	}
	out := headers.Clone()
	for key := range out {
		if _, hit := keys[strings.ToLower(key)]; hit {
			out.Set(key, "***")
		}
	}
	return out
}

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter) httpMetrics {
	var m httpMetrics
	var err error

	m.requests, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("HTTP requests served, by route and status"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	m.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}
	return m
}

// middlewareObservability opens a server span per request, records request
// metrics and writes one access log line per response.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	var maskKeys map[string]struct{}
	if cfg != nil {
		maskKeys = instrument.BuildMaskKeys(cfg.GetArray("instrument.log_mask_fields"))
	}
	tracer := ins.Tracer("http.server")
	metrics := newHTTPMetrics(ins.Meter("http.server"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ServerAddressKey.String(r.Host),
					semconv.ClientAddressKey.String(r.RemoteAddr),
					semconv.UserAgentOriginalKey.String(r.UserAgent()),
				),
			)
			defer span.End()

			slog.DebugContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", maskHeaders(r.Header, maskKeys),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.code()
			elapsed := time.Since(start)
			attrs := metric.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			)

			span.SetAttributes(
				semconv.HTTPResponseStatusCodeKey.Int(status),
				attribute.Int("http.response.body.size", rec.bytes),
			)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if metrics.requests != nil {
				metrics.requests.Add(ctx, 1, attrs)
			}
			if metrics.duration != nil {
				metrics.duration.Record(ctx, elapsed.Seconds(), attrs)
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logAttrs := []any{
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"client_ip", r.RemoteAddr,
			}
			if rec.err != nil {
				logAttrs = append(logAttrs, "error", rec.err)
			}
			slog.Log(ctx, level, "request served", logAttrs...)
		})
	}
}

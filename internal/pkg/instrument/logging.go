package instrument

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
)

const masked = "***"

func initLogging(cfg *Config, lp *sdklog.LoggerProvider) {
	var handler slog.Handler = newJSONHandler(os.Stdout, parseLevel(cfg.LogLevel))
	if lp != nil {
		handler = fanout{handler, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp))}
	}

	slog.SetDefault(slog.New(NewHandler(handler, cfg.ServiceName, cfg.MaskFields)))
}

func parseLevel(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// newJSONHandler writes "ts", "severity" and a module relative "file" in
// place of slog's default keys. Sources outside the module are dropped.
func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "ts"
			case slog.LevelKey:
				a.Key = "severity"
			case slog.SourceKey:
				src, ok := a.Value.Any().(*slog.Source)
				if !ok {
					return a
				}
				_, rel, found := strings.Cut(src.File, "/internal/")
				if !found {
					return slog.Attr{}
				}
				return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
			}
			return a
		},
	})
}

// NewHandler decorates next with the service name, the correlation id and
// active trace ids found in the record's context, and masks attributes whose
// key is listed in maskFields.
func NewHandler(next slog.Handler, serviceName string, maskFields []string) slog.Handler {
	return &contextHandler{next: next, service: serviceName, maskKeys: BuildMaskKeys(maskFields)}
}

type contextHandler struct {
	next     slog.Handler
	service  string
	maskKeys map[string]struct{}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	out := r
	if len(h.maskKeys) > 0 {
		out = slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
		r.Attrs(func(a slog.Attr) bool {
			out.AddAttrs(maskAttr(a, h.maskKeys))
			return true
		})
	}

	if cid := GetCorrelationID(ctx); cid != "" {
		out.AddAttrs(slog.String("correlation_id", cid))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out.AddAttrs(slog.String("trace_id", sc.TraceID().String()), slog.String("span_id", sc.SpanID().String()))
	}
	if h.service != "" {
		out.AddAttrs(slog.String("service", h.service))
	}

	return h.next.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = maskAttr(a, h.maskKeys)
	}
	return &contextHandler{next: h.next.WithAttrs(clean), service: h.service, maskKeys: h.maskKeys}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), service: h.service, maskKeys: h.maskKeys}
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// BuildMaskKeys lower-cases and trims field names into a lookup set.
func BuildMaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			keys[field] = struct{}{}
		}
	}
	return keys
}

func maskAttr(a slog.Attr, keys map[string]struct{}) slog.Attr {
	if len(keys) == 0 {
		return a
	}
	if _, hit := keys[strings.ToLower(a.Key)]; hit {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = maskAttr(ga, keys)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := maskJSON([]byte(a.Value.String()), keys); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(MaskData(v, keys))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			a.Value = slog.AnyValue(MaskData(m, keys))
		case []byte:
			if s, ok := maskJSON(v, keys); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}
	return a
}

// maskJSON only touches payloads that hold a JSON object or array, such as a
// raw task event logged on dead-lettering.
func maskJSON(payload []byte, keys map[string]struct{}) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return "", false
	}
	out, err := json.Marshal(MaskData(v, keys))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// MaskData replaces the value of every key present in keys with "***",
// walking nested maps and slices. keys must be lower case.
func MaskData(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := keys[strings.ToLower(k)]; hit {
				out[k] = masked
				continue
			}
			out[k] = MaskData(inner, keys)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = MaskData(inner, keys)
		}
		return out
	default:
		return v
	}
}

package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/jwt"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Handler is the application-style handler used by this router.
//
// It returns a response payload (that will be JSON encoded) or an error.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	// Config provides runtime configuration values.
	Config config.Config
	// UUID generates request correlation IDs.
	UUID uid.StringID
	// JWT validates gateway tokens when auth.mode is "jwt".
	JWT jwt.JWT
	// Instrument provides tracing and metrics helpers.
	Instrument instrument.Instrumentation
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the service router. Every route except /health and /
// requires a caller identity resolved according to auth.mode.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	var authMode, authHeader, appName string
	if cfg.Config != nil {
		authMode = cfg.Config.GetString("auth.mode")
		authHeader = cfg.Config.GetString("auth.header")
		appName = cfg.Config.GetString("app.name")
	}
	if appName == "" {
		appName = "GoNotify"
	}

	resolve := headerIdentity(authHeader)
	if authMode == AuthModeJWT && cfg.JWT != nil {
		resolve = bearerIdentity(cfg.JWT)
	}

	public := map[string]map[string]struct{}{
		http.MethodGet: {"/": {}, "/health": {}},
	}

	ro := &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareClientIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(resolve, public),
		},
	}

	ro.GET("/", func(*Request) (any, error) {
		return map[string]string{"name": appName}, nil
	})
	ro.GET("/health", func(*Request) (any, error) {
		return map[string]string{"status": "UP"}, nil
	})

	return ro
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// PUT registers a PUT endpoint using the application Handler signature.
func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPut, path, h, mws...)
}

// PATCH registers a PATCH endpoint using the application Handler signature.
func (r *Router) PATCH(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPatch, path, h, mws...)
}

// DELETE registers a DELETE endpoint using the application Handler signature.
func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	}), append(r.mws, mws...)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

// writeError renders err with its goerror status. Anything else is a 500
// whose cause stays in the logs.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	} else if len(gerr.Fields()) > 0 {
		resp.Error = gerr.Fields()
	}
	writeJSON(w, resp, gerr.StatusCode())
}

// writeSuccess wraps resp in the success envelope. resp may customise the
// status, message and meta by implementing StatusCode, Message and Meta.
func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		out.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		out.Meta = m.Meta()
	}
	writeJSON(w, out, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		slog.Error("server: failed to encode data to json", "error", err)
	}
}

package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
)

// Request is what endpoint handlers receive.
type Request struct {
	*http.Request
}

// Param returns the path segment bound to name.
func (r *Request) Param(name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

// ParamInt64 parses a path segment such as a notification id.
func (r *Request) ParamInt64(name string) (int64, error) {
	v, err := strconv.ParseInt(r.Param(name), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat(name + " must be an integer")
	}
	return v, nil
}

// Query returns the trimmed query value for key.
func (r *Request) Query(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// QueryInt parses key as an int, returning def when it is absent or blank.
func (r *Request) QueryInt(key string, def int) (int, error) {
	raw := r.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, goerror.NewInvalidFormat(key + " must be an integer")
	}
	return v, nil
}

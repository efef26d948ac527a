package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/gonotify/internal/pkg/config"
)

const maintenanceAll = "*"

// maintenanceRules holds the routes answered with 503. An entry is either a
// route pattern ("/api/v1/notifications/:id/read"), a method qualified route
// ("POST /api/v1/notifications/process-unsent") or "*" for every route except
// /health.
type maintenanceRules struct {
	all        bool
	routes     map[string]struct{}
	retryAfter string
	message    string
}

func newMaintenanceRules(cfg config.Config) maintenanceRules {
	rules := maintenanceRules{routes: map[string]struct{}{}, message: "service is under maintenance"}
	if cfg == nil {
		return rules
	}

	for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
		entry = strings.Join(strings.Fields(entry), " ")
		switch {
		case entry == "":
		case entry == maintenanceAll:
			rules.all = true
		default:
			method, route, qualified := strings.Cut(entry, " ")
			if qualified {
				entry = strings.ToUpper(method) + " " + route
			}
			rules.routes[entry] = struct{}{}
		}
	}
	if msg := cfg.GetString("app.maintenance.message"); msg != "" {
		rules.message = msg
	}
	if secs := cfg.GetInt("app.maintenance.retry_after_seconds"); secs > 0 {
		rules.retryAfter = strconv.Itoa(secs)
	}
	return rules
}

func (m maintenanceRules) blocks(method, route string) bool {
	if route == "/health" {
		return false
	}
	if m.all {
		return true
	}
	if _, ok := m.routes[route]; ok {
		return true
	}
	_, ok := m.routes[method+" "+route]
	return ok
}

func middlewareMaintenance(cfg config.Config) Middleware {
	rules := newMaintenanceRules(cfg)

	return func(next http.Handler) http.Handler {
		if !rules.all && len(rules.routes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rules.blocks(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if rules.retryAfter != "" {
				w.Header().Set("Retry-After", rules.retryAfter)
			}
			writeJSON(w, errorResponse{Message: rules.message}, http.StatusServiceUnavailable)
		})
	}
}

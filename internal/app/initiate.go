package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/shandysiswandi/gonotify/internal/notification/usecase"
	"github.com/shandysiswandi/gonotify/internal/pkg/clock"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goroutine"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/jwt"
	"github.com/shandysiswandi/gonotify/internal/pkg/router"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
)

const (
	databaseDriverSQLite = "sqlite"

	roleAdmin = "admin"

	scopePubSub = "https://www.googleapis.com/auth/pubsub"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("failed to init config", err)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
	a.onClose("Config", func(context.Context) error { return cfg.Close() })
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		fatal("failed to init instrumentation", err)
	}
	a.ins = ins
	a.onClose("Instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	validator, err := validator.NewV10Validator(usecase.ValidationRules()...)
	if err != nil {
		fatal("failed to init validation v10 validator", err)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		fatal("failed to init uid number snowflake", err)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	if a.config.GetString("auth.mode") != router.AuthModeJWT {
		return
	}

	verifier, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("auth.jwt.secret")),
		Issuer:    a.config.GetString("auth.jwt.issuer"),
		Audiences: a.config.GetArray("auth.jwt.audiences"),
		TTL:       a.config.GetMinute("auth.jwt.ttl_minutes"),
		Leeway:    a.config.GetSecond("auth.jwt.leeway_seconds"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		fatal("failed to init jwt token", err)
	}
	a.jwt = verifier
}

func (a *App) initDatabase() {
	if a.config.GetString("database.driver") == databaseDriverSQLite {
		slog.Info("database driver sqlite, postgres pool not created")
		return
	}

	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("failed to parse database url", err)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		fatal("failed to create DB connection pool", err)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		fatal("failed to ping DB", err)
	}

	a.dbConn = pool
	a.onClose("Database", func(context.Context) error {
		pool.Close()
		return nil
	})
}

// initCasbin builds an in-memory RBAC enforcer from authz.admin_user_ids.
// With no admins configured the sweep trigger stays open.
func (a *App) initCasbin() {
	admins := a.config.GetArray("authz.admin_user_ids")
	if len(admins) == 0 {
		return
	}

	const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		fatal("failed to create model casbin", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		fatal("failed to init casbin", err)
	}

	if _, err := e.AddPolicy(roleAdmin, "notifications", "sweep"); err != nil {
		fatal("failed to add casbin policy", err)
	}
	for _, id := range admins {
		if _, err := e.AddGroupingPolicy(strings.TrimSpace(id), roleAdmin); err != nil {
			fatal("failed to add casbin admin", err, "user_id", id)
		}
	}

	a.casbin = e
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

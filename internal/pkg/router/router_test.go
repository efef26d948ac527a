package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gonotify/internal/pkg/auth"
	"github.com/shandysiswandi/gonotify/internal/pkg/clock"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/jwt"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, yaml string, verifier jwt.JWT) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	ro := NewRouter(Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		JWT:        verifier,
		Instrument: instrument.NewNoop(),
	})

	ro.GET("/api/v1/whoami", func(r *Request) (any, error) {
		return map[string]int64{"user_id": auth.GetCaller(r.Context()).UserID}, nil
	})
	ro.GET("/api/v1/missing", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("notification not found", goerror.CodeNotFound)
	})
	ro.GET("/api/v1/boom", func(*Request) (any, error) {
		return nil, errors.New("raw failure")
	})
	ro.DELETE("/api/v1/items/:id", func(r *Request) (any, error) {
		if _, err := r.ParamInt64("id"); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return ro
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_HeaderAuth(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t, "auth:\n  mode: header\n", nil)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not a number", header: "abc", wantStatus: http.StatusUnauthorized},
		{name: "negative id", header: "-4", wantStatus: http.StatusUnauthorized},
		{name: "valid id", header: "42", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			rec := httptest.NewRecorder()

			ro.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				body := decodeBody(t, rec)
				assert.Equal(t, map[string]any{"user_id": float64(42)}, body["data"])
			}
		})
	}
}

func TestRouter_JWTAuth(t *testing.T) {
	t.Parallel()

	// Arrange
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "gateway",
		Audiences: []string{"notification"},
		TTL:       time.Hour,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)
	token, err := signer.Generate(9)
	require.NoError(t, err)

	ro := newTestRouter(t, "auth:\n  mode: jwt\n", signer)

	// Act
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, req)

	headerOnly := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	headerOnly.Header.Set(HeaderUserID, "9")
	recHeader := httptest.NewRecorder()
	ro.ServeHTTP(recHeader, headerOnly)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"user_id": float64(9)}, decodeBody(t, rec)["data"])
	assert.Equal(t, http.StatusUnauthorized, recHeader.Code)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t, "auth:\n  mode: header\n", nil)

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_ErrorCodec(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t, "auth:\n  mode: header\n", nil)

	tests := []struct {
		name       string
		path       string
		method     string
		wantStatus int
		wantMsg    string
	}{
		{name: "business error", path: "/api/v1/missing", method: http.MethodGet, wantStatus: http.StatusNotFound, wantMsg: "notification not found"},
		{name: "unknown error", path: "/api/v1/boom", method: http.MethodGet, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "invalid param", path: "/api/v1/items/abc", method: http.MethodDelete, wantStatus: http.StatusBadRequest, wantMsg: "id must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(HeaderUserID, "1")
			rec := httptest.NewRecorder()

			ro.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeBody(t, rec)["message"])
		})
	}
}

func TestRouter_NoContent(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t, "auth:\n  mode: header\n", nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/items/5", nil)
	req.Header.Set(HeaderUserID, "1")
	rec := httptest.NewRecorder()

	ro.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRouter_Maintenance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		yaml       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "route blocked",
			yaml:       "app:\n  maintenance:\n    endpoints: [/api/v1/whoami]\n",
			method:     http.MethodGet,
			path:       "/api/v1/whoami",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "method qualified entry ignores other methods",
			yaml:       "app:\n  maintenance:\n    endpoints: [\"delete /api/v1/items/:id\"]\n",
			method:     http.MethodGet,
			path:       "/api/v1/whoami",
			wantStatus: http.StatusOK,
		},
		{
			name:       "method qualified entry matches pattern",
			yaml:       "app:\n  maintenance:\n    endpoints: [\"delete /api/v1/items/:id\"]\n",
			method:     http.MethodDelete,
			path:       "/api/v1/items/3",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "wildcard keeps health open",
			yaml:       "app:\n  maintenance:\n    endpoints: [\"*\"]\n",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ro := newTestRouter(t, "auth:\n  mode: header\n"+tt.yaml, nil)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(HeaderUserID, "1")
			rec := httptest.NewRecorder()

			ro.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	t.Run("retry after and message", func(t *testing.T) {
		t.Parallel()

		ro := newTestRouter(t, "app:\n  maintenance:\n    endpoints: [\"*\"]\n    message: sweeping\n    retry_after_seconds: 30\n", nil)
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))
		assert.Equal(t, "sweeping", decodeBody(t, rec)["message"])
	})
}

func TestRouter_Recoverer(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t, "auth:\n  mode: header\n", nil)
	ro.GET("/api/v1/panic", func(*Request) (any, error) {
		panic("handler crashed")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil)
	req.Header.Set(HeaderUserID, "1")
	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["message"])
}

func TestRouter_CorrelationID(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t, "auth:\n  mode: header\n", nil)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "correlation header wins", headers: map[string]string{HeaderCorrelationID: "abc", HeaderRequestID: "req"}, want: "abc"},
		{name: "request id fallback", headers: map[string]string{HeaderRequestID: " req-1 "}, want: "req-1"},
		{name: "oversized value is capped", headers: map[string]string{HeaderCorrelationID: strings.Repeat("x", 200)}, want: strings.Repeat("x", maxCorrelationIDLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			ro.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Header().Get(HeaderCorrelationID))
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
		wantOK  bool
	}{
		{name: "true client ip", remote: "10.0.0.1:5000", headers: map[string]string{"True-Client-IP": "203.0.113.7"}, want: "203.0.113.7", wantOK: true},
		{name: "first forwarded hop", remote: "10.0.0.1:5000", headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.9"}, want: "198.51.100.2", wantOK: true},
		{name: "garbage header falls back to peer", remote: "10.0.0.1:5000", headers: map[string]string{"X-Real-IP": "nope"}, want: "10.0.0.1", wantOK: true},
		{name: "mapped v4 is unmapped", remote: "[::ffff:192.0.2.1]:80", want: "192.0.2.1", wantOK: true},
		{name: "unparseable peer", remote: "pipe", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			addr, ok := clientIP(req)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, addr.String())
			}
		})
	}
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

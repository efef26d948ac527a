package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/notification/outbound/deadletter"
	"github.com/shandysiswandi/gonotify/internal/notification/outbound/email"
	"github.com/shandysiswandi/gonotify/internal/notification/outbound/sqlite"
	"github.com/shandysiswandi/gonotify/internal/notification/usecase"
	"github.com/shandysiswandi/gonotify/internal/pkg/clock"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/router"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

const testConfig = `
auth:
  mode: header
modules:
  notification:
    delivery:
      timeout_seconds: 1
    sweep:
      batch_size: 10
      workers: 2
`

type fixture struct {
	store  *sqlite.Store
	uc     *usecase.Usecase
	router *router.Router
	mq     *MQHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	ins := instrument.NewNoop()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "notifications.db"), ins)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	v, err := validator.NewV10Validator(usecase.ValidationRules()...)
	require.NoError(t, err)

	snow, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:         store,
		RepoSender:     email.New(nil, "", ins),
		RepoDeadLetter: deadletter.Log{},
		Config:         cfg,
		UID:            snow,
		UUID:           uid.NewUUID(),
		Clock:          clock.New(),
		Validator:      v,
		Instrument:     ins,
	})

	ro := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: ins})
	RegisterHTTPEndpoint(ro, uc)

	return &fixture{
		store:  store,
		uc:     uc,
		router: ro,
		mq:     &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: ins},
	}
}

// seed stores a notification owned by userID and returns its id.
func (f *fixture) seed(t *testing.T, id, userID int64, typ entity.Type, read, sent bool) int64 {
	t.Helper()

	ctx := context.Background()
	created, err := f.store.CreateNotification(ctx, entity.Notification{
		ID:        id,
		UserID:    userID,
		Title:     "Task Updated",
		Message:   "Your task 'Ship' has been updated.",
		Type:      typ,
		TaskID:    "task-" + strconv.FormatInt(id, 10),
		CreatedAt: time.Date(2024, 5, 1, 9, 0, int(id), 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, created)

	at := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	if read {
		require.NoError(t, f.store.MarkNotificationRead(ctx, id, at))
	}
	if sent {
		require.NoError(t, f.store.MarkNotificationSent(ctx, id, at))
	}
	return id
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    map[string]any    `json:"meta"`
	Error   map[string]string `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path string, userID int64) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if userID > 0 {
		req.Header.Set(router.HeaderUserID, strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

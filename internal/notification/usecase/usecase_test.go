package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/auth"
	"github.com/shandysiswandi/gonotify/internal/pkg/clock"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"github.com/shandysiswandi/gonotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return s.n.Inc() }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "dl-1" }

type fakeStore struct {
	mu        sync.Mutex
	rows      map[int64]entity.Notification
	keys      map[string]struct{}
	createErr int // number of CreateNotification calls that fail
	markErr   error
	listErr   error
	creates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[int64]entity.Notification{}, keys: map[string]struct{}{}}
}

func (f *fakeStore) CreateNotification(_ context.Context, n entity.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	if f.createErr > 0 {
		f.createErr--
		return false, errors.New("db down")
	}
	if n.DedupKey != "" {
		if _, ok := f.keys[n.DedupKey]; ok {
			return false, nil
		}
		f.keys[n.DedupKey] = struct{}{}
	}
	f.rows[n.ID] = n
	return true, nil
}

func (f *fakeStore) GetNotification(_ context.Context, id int64) (*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.rows[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &n, nil
}

func (f *fakeStore) match(filter entity.ListFilter) []entity.Notification {
	var out []entity.Notification
	for _, n := range f.rows {
		if n.UserID != filter.UserID {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		if filter.Type != entity.TypeUnknown && n.Type != filter.Type {
			continue
		}
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b entity.Notification) int { return int(b.ID - a.ID) })
	return out
}

func (f *fakeStore) ListNotifications(_ context.Context, filter entity.ListFilter) ([]entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.match(filter)
	if filter.Offset >= len(out) {
		return []entity.Notification{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) CountNotifications(_ context.Context, filter entity.ListFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return int64(len(f.match(filter))), nil
}

func (f *fakeStore) ListPendingDelivery(_ context.Context, afterID int64, limit int) ([]entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []entity.Notification
	for _, n := range f.rows {
		if !n.IsSent && n.ID > afterID {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b entity.Notification) int { return int(a.ID - b.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.rows[id]
	if !ok {
		return goerror.ErrNotFound
	}
	n.IsRead = true
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	f.rows[id] = n
	return nil
}

func (f *fakeStore) MarkNotificationSent(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return f.markErr
	}
	n, ok := f.rows[id]
	if !ok {
		return goerror.ErrNotFound
	}
	n.IsSent = true
	if n.SentAt == nil {
		n.SentAt = &at
	}
	f.rows[id] = n
	return nil
}

func (f *fakeStore) DeleteNotification(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rows[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeStore) all() []entity.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.Notification, 0, len(f.rows))
	for _, n := range f.rows {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b entity.Notification) int { return int(a.ID - b.ID) })
	return out
}

type sentMail struct {
	userID  int64
	subject string
	body    string
}

type fakeSender struct {
	mu    sync.Mutex
	fail  bool
	block chan struct{}
	sent  []sentMail
}

func (f *fakeSender) Send(ctx context.Context, userID int64, subject, body string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{userID: userID, subject: subject, body: body})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeDeadLetter struct {
	mu      sync.Mutex
	err     error
	letters []entity.DeadLetter
}

func (f *fakeDeadLetter) Put(_ context.Context, dl entity.DeadLetter) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.letters = append(f.letters, dl)
	return nil
}

type fakeTracker struct {
	mu     sync.Mutex
	states map[string]idempotency.State
	err    error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{states: map[string]idempotency.State{}}
}

func (f *fakeTracker) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return idempotency.StateError, f.err
	}
	if st, ok := f.states[key]; ok {
		return st, nil
	}
	f.states[key] = idempotency.StateInProgress
	return idempotency.StateNone, nil
}

func (f *fakeTracker) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[key] = idempotency.StateCompleted
	return nil
}

func (f *fakeTracker) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, key)
	return nil
}

type fakeEnforcer struct {
	admins map[string]bool
}

func (f fakeEnforcer) Enforce(rvals ...any) (bool, error) {
	sub, _ := rvals[0].(string)
	return f.admins[sub], nil
}

type fixture struct {
	uc       *Usecase
	store    *fakeStore
	sender   *fakeSender
	dead     *fakeDeadLetter
	tracker  *fakeTracker
	enforcer enforcer
}

const testConfig = `
modules:
  notification:
    delivery:
      timeout_seconds: 1
    sweep:
      batch_size: 2
      workers: 3
`

func newFixture(t *testing.T, opts ...func(*fixture)) *fixture {
	t.Helper()

	cfg := mustConfig(t, testConfig)

	v, err := validator.NewV10Validator(ValidationRules()...)
	require.NoError(t, err)

	f := &fixture{
		store:  newFakeStore(),
		sender: &fakeSender{},
		dead:   &fakeDeadLetter{},
	}
	for _, opt := range opts {
		opt(f)
	}

	dep := Dependency{
		RepoDB:         f.store,
		RepoSender:     f.sender,
		RepoDeadLetter: f.dead,
		Config:         cfg,
		UID:            &seqID{},
		UUID:           fixedUUID{},
		Clock:          clock.Fixed(fixedNow),
		Validator:      v,
		Instrument:     instrument.NewNoop(),
		Enforcer:       f.enforcer,
	}
	if f.tracker != nil {
		dep.Tracker = f.tracker
	}
	f.uc = NewNotification(dep)

	return f
}

func mustConfig(t *testing.T, yaml string) config.Config {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	return cfg
}

func withTracker(f *fixture) { f.tracker = newFakeTracker() }

func asUser(id int64) context.Context {
	return auth.SetCaller(context.Background(), auth.Caller{UserID: id})
}

func (f *fixture) seed(n entity.Notification) entity.Notification {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = fixedNow
	}
	f.store.rows[n.ID] = n
	return n
}

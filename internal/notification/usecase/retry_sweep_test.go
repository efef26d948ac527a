package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPending(f *fixture, n int) {
	for i := 1; i <= n; i++ {
		f.seed(entity.Notification{ID: int64(i), UserID: 1, Title: "Task Created", Type: entity.TypeTaskCreated})
	}
}

func TestRetrySweep_DeliversPending(t *testing.T) {
	// Arrange
	f := newFixture(t)
	seedPending(f, 5)
	sentAt := fixedNow.Add(-time.Hour)
	f.seed(entity.Notification{ID: 6, UserID: 1, IsSent: true, SentAt: &sentAt})

	// Act
	res, err := f.uc.RetrySweep(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.SweepResult{Attempted: 5, Succeeded: 5}, res)
	assert.Equal(t, 5, f.sender.count())
	for _, n := range f.store.all() {
		assert.True(t, n.IsSent)
		require.NotNil(t, n.SentAt)
	}

	got, err := f.store.GetNotification(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, sentAt, *got.SentAt)
}

func TestRetrySweep_FailedStayPendingThenRecover(t *testing.T) {
	f := newFixture(t)
	seedPending(f, 3)
	f.sender.fail = true

	res, err := f.uc.RetrySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.SweepResult{Attempted: 3, Failed: 3}, res)
	for _, n := range f.store.all() {
		assert.False(t, n.IsSent)
	}

	f.sender.fail = false
	res, err = f.uc.RetrySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.SweepResult{Attempted: 3, Succeeded: 3}, res)

	res, err = f.uc.RetrySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.SweepResult{}, res, "second clean sweep finds nothing")
}

func TestRetrySweep_MaxRecords(t *testing.T) {
	f := newFixture(t)
	seedPending(f, 5)
	f.uc.cfg = mustConfig(t, "modules:\n  notification:\n    sweep:\n      batch_size: 2\n      max_records: 3\n")

	res, err := f.uc.RetrySweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Attempted)
}

func TestRetrySweep_ConcurrentCallIsSkipped(t *testing.T) {
	f := newFixture(t)
	seedPending(f, 1)
	f.sender.block = make(chan struct{})

	done := make(chan entity.SweepResult)
	go func() {
		res, _ := f.uc.RetrySweep(context.Background())
		done <- res
	}()

	require.Eventually(t, func() bool { return f.uc.sweeping.Load() }, time.Second, 5*time.Millisecond)

	res, err := f.uc.RetrySweep(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	close(f.sender.block)
	assert.Equal(t, int64(1), (<-done).Succeeded)
}

func TestRetrySweep_Cancelled(t *testing.T) {
	f := newFixture(t)
	seedPending(f, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.uc.RetrySweep(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Attempted)
	assert.Zero(t, f.sender.count())
}

func TestRetrySweep_StoreError(t *testing.T) {
	f := newFixture(t)
	f.store.listErr = errors.New("db down")

	_, err := f.uc.RetrySweep(context.Background())

	require.Error(t, err)
	assert.Equal(t, goerror.CodeInternal, goerror.CodeOf(err))
}

func TestProcessUnsent_Authorization(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		enforcer enforcer
		wantCode goerror.Code
	}{
		{name: "anonymous", ctx: context.Background(), wantCode: goerror.CodeUnauthorized},
		{name: "open without enforcer", ctx: asUser(5)},
		{
			name:     "non admin",
			ctx:      asUser(5),
			enforcer: fakeEnforcer{admins: map[string]bool{"1": true}},
			wantCode: goerror.CodeForbidden,
		},
		{name: "admin", ctx: asUser(1), enforcer: fakeEnforcer{admins: map[string]bool{"1": true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(f *fixture) { f.enforcer = tt.enforcer })
			seedPending(f, 1)

			res, err := f.uc.ProcessUnsent(tt.ctx)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, goerror.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), res.Succeeded)
		})
	}
}

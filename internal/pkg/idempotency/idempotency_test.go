package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestStateTracker_Lifecycle(t *testing.T) {
	client := newRedis(t)
	tracker := New(client, "test:")
	ctx := context.Background()

	// first claim owns the key
	state, err := tracker.Acquire(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)

	// a concurrent claim sees it in progress
	state, err = tracker.Acquire(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, state)

	require.NoError(t, tracker.MarkCompleted(ctx, "evt-1", time.Minute))

	state, err = tracker.Acquire(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)
}

func TestStateTracker_Release(t *testing.T) {
	client := newRedis(t)
	tracker := New(client, "")
	ctx := context.Background()

	_, err := tracker.Acquire(ctx, "evt-2", time.Minute)
	require.NoError(t, err)

	require.NoError(t, tracker.Release(ctx, "evt-2"))

	state, err := tracker.Acquire(ctx, "evt-2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)

	val, err := client.Get(ctx, "idempotency:evt-2").Result()
	require.NoError(t, err)
	assert.Equal(t, StateInProgress.String(), val)
}

func TestStateTracker_InvalidState(t *testing.T) {
	client := newRedis(t)
	tracker := New(client, "bad:")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "bad:evt-3", "garbage", time.Minute).Err())

	state, err := tracker.Acquire(ctx, "evt-3", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateError, state)
}

func TestStateTracker_ReleaseKeepsCompleted(t *testing.T) {
	client := newRedis(t)
	tracker := New(client, "keep:")
	ctx := context.Background()

	_, err := tracker.Acquire(ctx, "evt-4", time.Minute)
	require.NoError(t, err)
	require.NoError(t, tracker.MarkCompleted(ctx, "evt-4", time.Minute))

	require.NoError(t, tracker.Release(ctx, "evt-4"))

	state, err := tracker.Acquire(ctx, "evt-4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)
}

func TestStateTracker_ClaimExpires(t *testing.T) {
	client := newRedis(t)
	tracker := New(client, "ttl:")
	ctx := context.Background()

	_, err := tracker.Acquire(ctx, "evt-5", 50*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		state, err := tracker.Acquire(ctx, "evt-5", time.Minute)
		return err == nil && state == StateNone
	}, 2*time.Second, 20*time.Millisecond)
}

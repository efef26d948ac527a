package app

import (
	"context"
	"testing"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, yaml string) *App {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	return &App{ctx: context.Background(), config: cfg}
}

func TestNSQConfig(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, `
messaging:
  nsq:
    consumer_config:
      max_attempts: 7
      read_timeout_seconds: 45
      max_requeue_delay_seconds: 120
`)
	defaults := nsq.NewConfig()

	got := a.nsqConfig("messaging.nsq.consumer_config")

	assert.Equal(t, uint16(7), got.MaxAttempts)
	assert.Equal(t, 45*time.Second, got.ReadTimeout)
	assert.Equal(t, 2*time.Minute, got.MaxRequeueDelay)
	assert.Equal(t, defaults.DialTimeout, got.DialTimeout)
	assert.Equal(t, defaults.DefaultRequeueDelay, got.DefaultRequeueDelay)
}

func TestNATSOptions(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, `
messaging:
  nats:
    name: gonotify
    max_reconnects: 10
    timeout_seconds: 5
`)

	assert.Len(t, a.natsOptions("messaging.nats"), 4)
	assert.Len(t, a.natsOptions("messaging.missing"), 2)
}

func TestGoogleClientOptions(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, `
messaging:
  pubsub:
    without_auth: true
    endpoint: localhost:8085
`)

	assert.Len(t, a.googleClientOptions("messaging.pubsub", scopePubSub), 2)
	assert.Empty(t, a.googleClientOptions("storage.gcs", scopePubSub))
}

func TestOnClose_ReverseOrder(t *testing.T) {
	t.Parallel()

	a := &App{}
	var order []string
	for _, name := range []string{"Config", "Database", "Redis"} {
		a.onClose(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	for _, c := range a.closers {
		require.NoError(t, c.fn(context.Background()))
	}
	assert.Equal(t, []string{"Redis", "Database", "Config"}, order)
}

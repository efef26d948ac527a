package app

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gonotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/gonotify/internal/pkg/mail"
	"github.com/shandysiswandi/gonotify/internal/pkg/messaging"
	"github.com/shandysiswandi/gonotify/internal/pkg/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const pingTimeout = 5 * time.Second

// fatal logs and exits. Startup has no way to run without a configured
// resource, so failures stop the process.
func fatal(msg string, err error, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
	os.Exit(1)
}

// onClose registers fn to run on Stop. Resources close in reverse order of
// registration.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append([]struct {
		name string
		fn   func(context.Context) error
	}{{name: name, fn: fn}}, a.closers...)
}

func (a *App) cfgString(key string) string {
	return strings.TrimSpace(a.config.GetString(key))
}

// initCache connects Redis, which backs the fast path of event idempotency.
func (a *App) initCache() {
	if !a.config.GetBool("redis.enabled") {
		slog.Info("redis disabled, event idempotency relies on the store dedup key")
		return
	}

	opt, err := redis.ParseURL(a.cfgString("redis.url"))
	if err != nil {
		fatal("failed to parse redis url", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fatal("failed to ping redis", err)
	}

	a.cacheConn = rdb
	a.tracker = idempotency.New(rdb, a.config.GetString("redis.idempotency.prefix"))
	a.onClose("Redis", func(context.Context) error { return rdb.Close() })
}

// initMail builds the SMTP client. Without it email delivery is simulated
// and notifications are still marked sent.
func (a *App) initMail() {
	if !a.config.GetBool("mail.enabled") {
		slog.Info("mail disabled, email delivery is simulated")
		return
	}

	client, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.cfgString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.cfgString("mail.from"),
	})
	if err != nil {
		fatal("failed to init mail", err)
	}

	a.mail = client
	a.onClose("Mail", func(context.Context) error { return client.Close() })
}

// initStorage opens the bucket used by the storage dead letter driver.
func (a *App) initStorage() {
	driver := a.cfgString("storage.driver")
	if driver == "" {
		return
	}

	opts := storage.FactoryOptions{
		Bucket: a.cfgString("storage.bucket"),
		S3: storage.S3Options{
			Region:       a.cfgString("storage.s3.region"),
			Endpoint:     a.cfgString("storage.s3.endpoint"),
			AccessKey:    a.cfgString("storage.s3.access_key"),
			SecretKey:    a.cfgString("storage.s3.secret_key"),
			SessionToken: a.cfgString("storage.s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Region:       a.cfgString("storage.minio.region"),
			Endpoint:     a.cfgString("storage.minio.endpoint"),
			AccessKey:    a.cfgString("storage.minio.access_key"),
			SecretKey:    a.cfgString("storage.minio.secret_key"),
			SessionToken: a.cfgString("storage.minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	}

	if driver == storage.DriverGCS {
		opts.GCS.ClientOptions = a.googleClientOptions("storage.gcs", gcs.ScopeReadWrite)
		if ua := a.cfgString("storage.gcs.user_agent"); ua != "" {
			opts.GCS.ClientOptions = append(opts.GCS.ClientOptions, option.WithUserAgent(ua))
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, opts)
	if err != nil {
		fatal("failed to init storage", err, "driver", driver)
	}

	a.storage = stg
	a.onClose("Storage", func(context.Context) error { return stg.Close() })
}

// initMessaging connects the broker carrying task events. The same client
// publishes dead letters when that driver is selected.
func (a *App) initMessaging() {
	driver := a.cfgString("messaging.driver")
	if driver == "" {
		slog.Info("messaging disabled, task events are not consumed")
		return
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers:   a.config.GetArray("messaging.kafka.brokers"),
			RetryBase: a.config.GetMillisecond("messaging.kafka.retry_base_ms"),
			RetryMax:  a.config.GetSecond("messaging.kafka.retry_max_seconds"),
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.cfgString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig:       a.nsqConfig("messaging.nsq.producer_config"),
			ConsumerConfig:       a.nsqConfig("messaging.nsq.consumer_config"),
		},
		NATS: messaging.NATSConfig{
			URL:     a.cfgString("messaging.nats.url"),
			Options: a.natsOptions("messaging.nats"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.cfgString("messaging.pubsub.project_id"),
			ClientOptions: a.googleClientOptions("messaging.pubsub", scopePubSub),
		},
	})
	if err != nil {
		fatal("failed to init messaging", err, "driver", driver)
	}

	a.messaging = client
	a.onClose("Messaging", func(context.Context) error { return client.Close() })
}

// nsqConfig reads the timeouts and requeue settings under prefix. Keys that
// are absent keep go-nsq's defaults.
func (a *App) nsqConfig(prefix string) *nsq.Config {
	cfg := nsq.NewConfig()

	durations := map[string]*time.Duration{
		"dial_timeout_seconds":          &cfg.DialTimeout,
		"read_timeout_seconds":          &cfg.ReadTimeout,
		"write_timeout_seconds":         &cfg.WriteTimeout,
		"lookupd_poll_interval_seconds": &cfg.LookupdPollInterval,
		"default_requeue_delay_seconds": &cfg.DefaultRequeueDelay,
		"max_requeue_delay_seconds":     &cfg.MaxRequeueDelay,
	}
	for key, dst := range durations {
		if d := a.config.GetSecond(prefix + "." + key); d > 0 {
			*dst = d
		}
	}
	if n := a.config.GetUint16(prefix + ".max_attempts"); n > 0 {
		cfg.MaxAttempts = n
	}
	return cfg
}

func (a *App) natsOptions(prefix string) []nats.Option {
	opts := []nats.Option{
		nats.Name(a.cfgString(prefix + ".name")),
		nats.RetryOnFailedConnect(a.config.GetBool(prefix + ".retry_on_failed_connect")),
	}
	if n := a.config.GetInt(prefix + ".max_reconnects"); n != 0 {
		opts = append(opts, nats.MaxReconnects(n))
	}
	if n := a.config.GetInt(prefix + ".max_pings_outstanding"); n > 0 {
		opts = append(opts, nats.MaxPingsOutstanding(n))
	}
	if d := a.config.GetSecond(prefix + ".timeout_seconds"); d > 0 {
		opts = append(opts, nats.Timeout(d))
	}
	if d := a.config.GetSecond(prefix + ".reconnect_wait_seconds"); d > 0 {
		opts = append(opts, nats.ReconnectWait(d))
	}
	if d := a.config.GetSecond(prefix + ".ping_interval_seconds"); d > 0 {
		opts = append(opts, nats.PingInterval(d))
	}
	return opts
}

// googleClientOptions reads without_auth, credentials_file, credentials_json
// and endpoint under prefix. It serves both GCS and Pub/Sub.
func (a *App) googleClientOptions(prefix, scope string) []option.ClientOption {
	var opts []option.ClientOption
	if a.config.GetBool(prefix + ".without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}

	credsJSON := a.config.GetBinary(prefix + ".credentials_json")
	if path := a.cfgString(prefix + ".credentials_file"); path != "" && len(credsJSON) == 0 {
		// #nosec G304 -- path is from trusted config file.
		data, err := os.ReadFile(path)
		if err != nil {
			fatal("failed to read google credentials file", err, "prefix", prefix)
		}
		credsJSON = data
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, scope)
		if err != nil {
			fatal("failed to parse google credentials", err, "prefix", prefix)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	if endpoint := a.cfgString(prefix + ".endpoint"); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

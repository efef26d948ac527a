package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Driver names accepted by messaging.driver.
const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries every backend's settings. Only the selected one is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

type constructor func(context.Context, FactoryOptions) (Messaging, error)

var constructors = map[string]constructor{
	DriverNSQ:   func(_ context.Context, o FactoryOptions) (Messaging, error) { return NewNSQ(o.NSQ) },
	DriverKafka: func(_ context.Context, o FactoryOptions) (Messaging, error) { return NewKafka(o.Kafka) },
	DriverNATS:  func(_ context.Context, o FactoryOptions) (Messaging, error) { return NewNATS(o.NATS) },
	DriverGooglePubSub: func(ctx context.Context, o FactoryOptions) (Messaging, error) {
		return NewPubSub(ctx, o.PubSub)
	},
}

var aliases = map[string]string{"pubsub": DriverGooglePubSub, "gcp-pubsub": DriverGooglePubSub}

// Drivers lists the accepted driver names in sorted order.
func Drivers() []string {
	names := lo.Keys(constructors)
	slices.Sort(names)
	return names
}

// NewFromDriver builds the backend named by driver, case-insensitively.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}

	build, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
	return build(ctx, opts)
}

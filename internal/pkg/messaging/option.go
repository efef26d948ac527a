package messaging

type consumeOptions struct {
	// group is the Kafka consumer group, NATS queue group, NSQ channel or
	// Pub/Sub subscription id.
	group string

	// concurrency is the number of parallel handlers. For Kafka it is the
	// number of readers in the group, each handling its partitions in order.
	concurrency int

	// maxInFlight limits unacknowledged messages where the broker supports it.
	maxInFlight int
}

// ConsumeOption configures consumer behavior.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&co)
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	if co.maxInFlight < co.concurrency {
		co.maxInFlight = co.concurrency
	}
	return co
}

// WithGroup sets the shared consumer identity: Kafka group, NATS queue group,
// NSQ channel or Pub/Sub subscription.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxInFlight limits the maximum number of unacknowledged messages in flight.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}

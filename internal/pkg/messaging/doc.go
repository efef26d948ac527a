// Package messaging publishes and consumes messages over Kafka, NATS, NSQ or
// Google Pub/Sub behind one broker-agnostic API.
//
// Drivers acknowledge a message when the handler returns nil and ask the
// broker for redelivery otherwise. Handlers run on a context that is detached
// from the consume context, so cancelling Consume stops fetching but lets
// in-flight messages finish.
package messaging

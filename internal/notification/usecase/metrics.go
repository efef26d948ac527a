package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type metrics struct {
	created   metric.Int64Counter
	delivery  metric.Int64Counter
	sweepRuns metric.Int64Counter
	skipped   metric.Int64Counter
}

func newMetrics(meter metric.Meter) *metrics {
	return &metrics{
		created:   counter(meter, "notification.created", "Notifications stored from task events"),
		delivery:  counter(meter, "notification.delivery", "Delivery attempts by outcome and path"),
		sweepRuns: counter(meter, "notification.sweep.runs", "Retry sweeps executed"),
		skipped:   counter(meter, "notification.events.skipped", "Task events that produced no notifications"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func (m *metrics) recordDelivery(ctx context.Context, outcome, path string) {
	m.delivery.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("path", path),
	))
}

func (m *metrics) recordSkipped(ctx context.Context, reason string) {
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goroutine"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"github.com/shandysiswandi/gonotify/internal/pkg/messaging"
	"github.com/shandysiswandi/gonotify/internal/pkg/uid"
	"github.com/shandysiswandi/gonotify/internal/shared/event"
)

// ConsumerTopic is the topic task events are read from.
func ConsumerTopic(cfg config.Config) string {
	if topic := cfg.GetString("modules.notification.consumer.topic"); topic != "" {
		return topic
	}
	return event.TaskEventsDestination
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	if consumer == nil || !cfg.GetBool("modules.notification.consumer.enabled") {
		slog.InfoContext(ctx, "task event consumer disabled")
		return
	}

	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	topic := ConsumerTopic(cfg)
	group := cfg.GetString("modules.notification.consumer.group")
	if group == "" {
		group = event.TaskEventsConsumerNotification
	}
	concurrency := max(cfg.GetInt("modules.notification.consumer.concurrency"), 1)

	routine.Go(ctx, "notification.consumer."+topic, func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "Running job for handling consumer", "topic", topic, "group", group, "concurrency", concurrency)
		return messaging.IgnoreCanceled(consumer.Consume(pCtx,
			topic,
			mqHandler.TaskEvent,
			messaging.WithGroup(group),
			messaging.WithConcurrency(concurrency),
			messaging.WithMaxInFlight(cfg.GetInt("modules.notification.consumer.max_in_flight")),
		))
	})
}

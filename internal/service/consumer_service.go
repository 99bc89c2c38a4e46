package service

import (
	"context"

	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// AuditedEventTypes are written to the structured log by the audit consumer.
var AuditedEventTypes = []string{
	events.TypeUserRegistered,
	events.TypeUserDeleted,
	events.TypeThreadCreated,
	events.TypeCleanupCompleted,
}

type IConsumerService interface {
	// Consume subscribes to the in-process channel and returns once the
	// subscriptions are in place.
	Consume(ctx context.Context) error
	// HandleEvent records one event. It is also the NATS handler.
	HandleEvent(ctx context.Context, event events.Event) error
}

type consumerService struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, log logger.ILogger) IConsumerService {
	return &consumerService{pubSub: pubSub, logger: log}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	for _, eventType := range AuditedEventTypes {
		messages, err := cs.pubSub.Subscribe(ctx, events.Subject(eventType))
		if err != nil {
			return err
		}
		go func() {
			for msg := range messages {
				cs.processMessage(ctx, msg)
			}
		}()
	}
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg)
	if err != nil {
		cs.logger.Error("EVENTS", "Failed to decode event", map[string]interface{}{"error": err.Error()})
		// Ack so a malformed payload is not redelivered forever.
		msg.Ack()
		return
	}

	if err := cs.HandleEvent(ctx, event); err != nil {
		msg.Nack()
		return
	}
	msg.Ack()
}

func (cs *consumerService) HandleEvent(_ context.Context, event events.Event) error {
	details := map[string]interface{}{
		"event_type":  event.EventType(),
		"occurred_at": event.Timestamp(),
	}
	for k, v := range event.Payload() {
		details[k] = v
	}
	cs.logger.Info("EVENTS", "Domain event", details)
	return nil
}

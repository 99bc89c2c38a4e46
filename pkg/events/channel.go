package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ChannelPublisher publishes to an in-process watermill GoChannel. It keeps
// in-process subscribers (the audit logger) working when NATS is absent.
type ChannelPublisher struct {
	pubSub *gochannel.GoChannel
}

var _ Publisher = (*ChannelPublisher)(nil)

func NewChannelPublisher(pubSub *gochannel.GoChannel) *ChannelPublisher {
	return &ChannelPublisher{pubSub: pubSub}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(ToEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := p.pubSub.Publish(Subject(event.EventType()), msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}
	return nil
}

// Decode reads an envelope back from a watermill message.
func Decode(msg *message.Message) (BaseEvent, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return BaseEvent{}, err
	}
	return env.Event(), nil
}

package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic is the in-process topic carrying review events.
const Topic = "review.events"

// BusPublisher puts events on the in-process watermill channel.
type BusPublisher struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewBusPublisher(pubSub *gochannel.GoChannel, topic string) *BusPublisher {
	if topic == "" {
		topic = Topic
	}
	return &BusPublisher{pubSub: pubSub, topic: topic}
}

func (b *BusPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return b.pubSub.Publish(b.topic, msg)
}

// FanOut publishes to every non-nil publisher and joins their errors.
type FanOut []Publisher

func (f FanOut) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package service

import (
	"context"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/events"
	pktNats "ai-review-be/pkg/nats"
)

// EventCounter counts consumed events.
type EventCounter interface {
	Event(eventType string)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
	ConsumeRemote(ctx context.Context, sub *pktNats.Subscriber) error
}

// consumerService drains the in-process bus into metrics. The audit log is
// written from NATS when a subscriber is attached, so every replica's events
// land in it once; otherwise the local bus writes it.
type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	auditLogger logger.ILogger
	counter     EventCounter
	remoteAudit atomic.Bool
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	auditLogger logger.ILogger,
	counter EventCounter,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		auditLogger: auditLogger,
		counter:     counter,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// ConsumeRemote moves audit logging onto the shared NATS stream.
func (cs *consumerService) ConsumeRemote(ctx context.Context, sub *pktNats.Subscriber) error {
	err := sub.Subscribe(ctx, pktNats.SubjectPrefix+".>", "review-audit", func(_ context.Context, event events.Event) error {
		cs.audit(event, "nats")
		return nil
	})
	if err != nil {
		return err
	}
	cs.remoteAudit.Store(true)
	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.auditLogger.Warn("EVENTS", "Dropping undecodable message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	if cs.counter != nil {
		cs.counter.Event(event.EventType())
	}
	if !cs.remoteAudit.Load() {
		cs.audit(event, "local")
	}
	msg.Ack()
}

func (cs *consumerService) audit(event events.Event, source string) {
	details := map[string]interface{}{
		"event_id":    event.EventID(),
		"source":      source,
		"occurred_at": event.Timestamp(),
	}
	for k, v := range event.Payload() {
		details[k] = v
	}
	cs.auditLogger.Info("EVENTS", event.EventType(), details)
}

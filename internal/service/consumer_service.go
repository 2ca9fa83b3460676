package service

import (
	"context"
	"encoding/json"
	"time"

	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	AuditTopic  = "assistant.audit"
	auditModule = "ASSISTANT_AUDIT"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService writes every resolved query to the audit log and forwards
// it to the event bus when one is configured.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	auditLog   logger.ILogger
	forwarder  events.Publisher
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	auditLog logger.ILogger,
	forwarder events.Publisher,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		auditLog:   auditLog,
		forwarder:  forwarder,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var ev events.QueryResolved
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		cs.auditLog.Error(auditModule, "Dropping malformed audit message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	cs.auditLog.Info(auditModule, "Query resolved", ev.Payload())

	// the local record is already written, so a bus outage is logged, not retried
	if cs.forwarder != nil {
		fwdCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := cs.forwarder.Publish(fwdCtx, ev)
		cancel()
		if err != nil {
			cs.auditLog.Warn(auditModule, "Failed to forward audit event", map[string]interface{}{
				"event_id": ev.EventId,
				"error":    err.Error(),
			})
		}
	}
	msg.Ack()
}

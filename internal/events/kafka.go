package events

import (
	"context"
	"fmt"
	"tourdesk/pkg/kafka"
	"tourdesk/pkg/logger"
)

const source = "tourdesk-scheduler"

// MessagePublisher is the part of kafka.Producer the event bridge needs.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes events to the bookings topic keyed by booking id, so
// every change to one booking lands on one partition in order.
type KafkaPublisher struct {
	producer MessagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	msg, err := EncodeMessage(event)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for booking %s: %w", event.Type(), event.Booking.ID, err)
	}
	return nil
}

func EncodeMessage(event *BookingEvent) (kafka.Message, error) {
	return kafka.NewMessage().
		WithKey(event.Booking.ID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(event.Type()).
		WithCorrelationID(event.CorrelationID).
		WithActor(event.Actor).
		WithSchemaVersion(SchemaVersion).
		WithSource(source).
		WithTimestamp(event.OccurredAt).
		Build()
}

// KafkaHandler decodes consumed booking events and hands them to next.
// A message that cannot be decoded is a permanent failure and goes to the DLQ.
func KafkaHandler(next Publisher) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("undecodable booking event", err).
				WithDetail("offset", msg.Offset)
		}
		if event.Booking == nil || event.Action == "" {
			return kafka.NewPermanentError("booking event without booking or action", kafka.ErrInvalidMessage).
				WithDetail("event_id", msg.GetEventID())
		}
		return next.Publish(ctx, &event)
	}
}

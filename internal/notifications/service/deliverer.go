package service

import (
	"context"
	"fmt"
	"tourdesk/pkg/kafka"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"
)

// Deliverer hands a stored notification to one recipient.
type Deliverer interface {
	Deliver(ctx context.Context, recipient string, n *model.Notification) error
}

// LogDeliverer only records the delivery. It is the default when no push
// channel is configured.
type LogDeliverer struct {
	log *logger.Logger
}

func NewLogDeliverer(log *logger.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

func (d *LogDeliverer) Deliver(ctx context.Context, recipient string, n *model.Notification) error {
	d.log.Info("Notification delivered",
		"notification_id", n.ID,
		"booking_id", n.BookingID,
		"action", n.Action,
		"recipient", recipient,
		"message", n.Message,
	)
	return nil
}

// KafkaDeliverer writes one message per recipient on the notifications topic,
// keyed by recipient so a person's notifications stay ordered.
type KafkaDeliverer struct {
	producer MessagePublisher
}

type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

func NewKafkaDeliverer(producer MessagePublisher) *KafkaDeliverer {
	return &KafkaDeliverer{producer: producer}
}

type deliveryPayload struct {
	Recipient    string              `json:"recipient"`
	Notification *model.Notification `json:"notification"`
}

func (d *KafkaDeliverer) Deliver(ctx context.Context, recipient string, n *model.Notification) error {
	msg, err := kafka.NewMessage().
		WithKey(recipient).
		WithValue(deliveryPayload{Recipient: recipient, Notification: n}).
		WithEventID(n.ID + ":" + recipient).
		WithEventType("notification." + string(n.Action)).
		WithTimestamp(n.CreatedAt).
		Build()
	if err != nil {
		return err
	}
	if err := d.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("deliver notification %s to %s: %w", n.ID, recipient, err)
	}
	return nil
}

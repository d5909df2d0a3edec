// Package events carries booking mutations to the subscribers that react to
// them: notification fanout and utilization. Publishing happens after the
// mutation committed, so a subscriber failure never undoes a booking.
package events

import (
	"context"
	"errors"
	"time"
	"tourdesk/pkg/model"

	"github.com/google/uuid"
)

const SchemaVersion = "1"

var (
	ErrBusClosed = errors.New("event bus is closed")
	ErrBusFull   = errors.New("event bus queue is full")
)

type BookingEvent struct {
	ID            string              `json:"id"`
	Action        model.BookingAction `json:"action"`
	Booking       *model.Booking      `json:"booking"`
	Previous      *model.Booking      `json:"previous,omitempty"`
	Actor         string              `json:"actor"`
	CorrelationID string              `json:"correlation_id,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NewBookingEvent snapshots booking and previous so later changes to either
// do not leak into the event.
func NewBookingEvent(action model.BookingAction, booking, previous *model.Booking, actor string) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.NewString(),
		Action:     action,
		Booking:    booking.Clone(),
		Previous:   previous.Clone(),
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

// Type is the event-type header value, for example "booking.created".
func (e *BookingEvent) Type() string {
	return "booking." + string(e.Action)
}

// Rescheduled reports whether an update moved the booking in time or onto
// another resource.
func (e *BookingEvent) Rescheduled() bool {
	if e.Action != model.ActionUpdated || e.Previous == nil || e.Booking == nil {
		return false
	}
	return !e.Previous.Window.Equal(e.Booking.Window) || e.Previous.Resource.ID != e.Booking.Resource.ID
}

// Dates lists every date the event touches, current first.
func (e *BookingEvent) Dates() []string {
	dates := make([]string, 0, 2)
	if e.Booking != nil {
		dates = append(dates, e.Booking.Window.Date)
	}
	if e.Previous != nil && (e.Booking == nil || e.Previous.Window.Date != e.Booking.Window.Date) {
		dates = append(dates, e.Previous.Window.Date)
	}
	return dates
}

type Publisher interface {
	Publish(ctx context.Context, event *BookingEvent) error
}

// Handler reacts to one event. Returning an error only gets it logged.
type Handler func(ctx context.Context, event *BookingEvent) error

// PublisherFunc adapts a plain function to Publisher.
type PublisherFunc func(ctx context.Context, event *BookingEvent) error

func (f PublisherFunc) Publish(ctx context.Context, event *BookingEvent) error {
	return f(ctx, event)
}

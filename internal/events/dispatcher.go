package events

import (
	"context"
	"fmt"
	"sync"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/metrics"
)

type subscription struct {
	name    string
	handler Handler
}

// Dispatcher delivers each event to every subscriber in registration order.
// A failing or panicking subscriber is logged and the rest still run.
type Dispatcher struct {
	mu      sync.RWMutex
	subs    []subscription
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		log:     log,
		metrics: m,
	}
}

func (d *Dispatcher) Subscribe(name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, subscription{name: name, handler: handler})
}

func (d *Dispatcher) Publish(ctx context.Context, event *BookingEvent) error {
	d.mu.RLock()
	subs := append([]subscription(nil), d.subs...)
	d.mu.RUnlock()

	outcome := metrics.OutcomeSuccess
	for _, sub := range subs {
		if err := d.deliver(ctx, sub, event); err != nil {
			outcome = metrics.OutcomeError
			d.log.Error("Event subscriber failed",
				"subscriber", sub.name,
				"event_id", event.ID,
				"event_type", event.Type(),
				"booking_id", event.Booking.ID,
				"error", err,
			)
		}
	}
	d.metrics.RecordEvent(string(event.Action), outcome)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub subscription, event *BookingEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return sub.handler(ctx, event)
}

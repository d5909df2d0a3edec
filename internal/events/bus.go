package events

import (
	"context"
	"sync"
	"time"
	"tourdesk/pkg/logger"
)

// Bus hands events to next on background workers so publishers never wait
// for subscribers. Stop drains whatever is already queued.
type Bus struct {
	next    Publisher
	queue   chan *BookingEvent
	workers int
	log     *logger.Logger

	enqueueWait time.Duration
	onDrop      func(*BookingEvent)

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewBus(next Publisher, workers, bufferSize int, log *logger.Logger) *Bus {
	return &Bus{
		next:    next,
		queue:   make(chan *BookingEvent, bufferSize),
		workers: max(1, workers),
		log:     log,
	}
}

// SetEnqueueWait lets Publish wait up to d for room in a full queue.
func (b *Bus) SetEnqueueWait(d time.Duration) {
	b.enqueueWait = d
}

// OnDrop registers fn for events the bus could not queue. Subscribers never
// see those events, so fn is where derived state gets marked stale.
func (b *Bus) OnDrop(fn func(*BookingEvent)) {
	b.onDrop = fn
}

func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work()
	}
}

func (b *Bus) work() {
	defer b.wg.Done()
	for event := range b.queue {
		if err := b.next.Publish(context.Background(), event); err != nil {
			b.log.Error("Failed to dispatch booking event",
				"event_id", event.ID,
				"event_type", event.Type(),
				"error", err,
			)
		}
	}
}

// Publish enqueues the event, waiting at most the enqueue wait when the
// queue is full. ctx is not carried to the workers since the caller's
// request is usually over by the time the event is handled.
func (b *Bus) Publish(ctx context.Context, event *BookingEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.drop(event, ErrBusClosed)
		return ErrBusClosed
	}

	select {
	case b.queue <- event:
		return nil
	default:
	}

	if b.enqueueWait > 0 {
		timer := time.NewTimer(b.enqueueWait)
		defer timer.Stop()

		select {
		case b.queue <- event:
			return nil
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	b.drop(event, ErrBusFull)
	return ErrBusFull
}

func (b *Bus) drop(event *BookingEvent, reason error) {
	b.log.Warn("Booking event dropped",
		"event_id", event.ID,
		"event_type", event.Type(),
		"dates", event.Dates(),
		"reason", reason,
	)
	if b.onDrop != nil {
		b.onDrop(event)
	}
}

// Stop refuses new events and waits until queued ones are handled or ctx ends.
func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	started := b.started
	b.mu.Unlock()

	if !started {
		for event := range b.queue {
			_ = b.next.Publish(ctx, event)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		b.log.Warn("Event bus stopped before draining", "pending", len(b.queue))
		return ctx.Err()
	}
}

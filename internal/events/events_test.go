package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
	"tourdesk/pkg/kafka"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking(id string) *model.Booking {
	return &model.Booking{
		ID:       id,
		Resource: model.ResourceRef{ID: "R1", Kind: model.KindBoat},
		Crew:     []model.CrewRef{{ID: "C1"}},
		Window:   model.TimeWindow{Date: "2025-09-20", Start: "10:00", End: "12:00"},
		Status:   model.StatusPending,
	}
}

func TestNewBookingEvent_Snapshots(t *testing.T) {
	b := testBooking("b1")
	event := NewBookingEvent(model.ActionCreated, b, nil, "alice")

	b.Crew[0].ID = "changed"
	assert.Equal(t, "C1", event.Booking.Crew[0].ID)
	assert.Nil(t, event.Previous)
	assert.Equal(t, "booking.created", event.Type())
	assert.NotEmpty(t, event.ID)
}

func TestBookingEvent_RescheduledAndDates(t *testing.T) {
	prev := testBooking("b1")
	cur := testBooking("b1")
	cur.Notes = "more guests"

	event := NewBookingEvent(model.ActionUpdated, cur, prev, "alice")
	assert.False(t, event.Rescheduled())
	assert.Equal(t, []string{"2025-09-20"}, event.Dates())

	cur.Window = model.TimeWindow{Date: "2025-09-21", Start: "10:00", End: "12:00"}
	event = NewBookingEvent(model.ActionUpdated, cur, prev, "alice")
	assert.True(t, event.Rescheduled())
	assert.Equal(t, []string{"2025-09-21", "2025-09-20"}, event.Dates())
}

func TestDispatcher_IsolatesFailingSubscribers(t *testing.T) {
	d := NewDispatcher(logger.Discard(), nil)
	var calls []string

	d.Subscribe("first", func(ctx context.Context, e *BookingEvent) error {
		calls = append(calls, "first")
		return errors.New("inbox down")
	})
	d.Subscribe("panics", func(ctx context.Context, e *BookingEvent) error {
		calls = append(calls, "panics")
		panic("boom")
	})
	d.Subscribe("last", func(ctx context.Context, e *BookingEvent) error {
		calls = append(calls, "last")
		return nil
	})

	err := d.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("b1"), nil, "alice"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "panics", "last"}, calls)
}

func TestBus_DeliversAndDrains(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	next := PublisherFunc(func(ctx context.Context, e *BookingEvent) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen = append(seen, e.Booking.ID)
		mu.Unlock()
		return nil
	})

	bus := NewBus(next, 2, 16, logger.Discard())
	bus.Start()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking(id), nil, "alice")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	mu.Lock()
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, seen)
	mu.Unlock()

	err := bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("e"), nil, "alice"))
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.NoError(t, bus.Stop(ctx))
}

func TestBus_FullQueue(t *testing.T) {
	bus := NewBus(PublisherFunc(func(ctx context.Context, e *BookingEvent) error { return nil }), 1, 1, logger.Discard())

	require.NoError(t, bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("a"), nil, "")))
	err := bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("b"), nil, ""))
	assert.ErrorIs(t, err, ErrBusFull)

	require.NoError(t, bus.Stop(context.Background()))
}

func TestBus_DroppedEventsReachHook(t *testing.T) {
	bus := NewBus(PublisherFunc(func(ctx context.Context, e *BookingEvent) error { return nil }), 1, 1, logger.Discard())
	bus.SetEnqueueWait(10 * time.Millisecond)
	var dropped []string
	bus.OnDrop(func(e *BookingEvent) { dropped = append(dropped, e.Booking.ID) })

	require.NoError(t, bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("a"), nil, "")))
	err := bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("b"), nil, ""))
	assert.ErrorIs(t, err, ErrBusFull)
	assert.Equal(t, []string{"b"}, dropped)

	require.NoError(t, bus.Stop(context.Background()))
	err = bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("c"), nil, ""))
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.Equal(t, []string{"b", "c"}, dropped)
}

func TestBus_WaitsForRoom(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []string
	next := PublisherFunc(func(ctx context.Context, e *BookingEvent) error {
		<-release
		mu.Lock()
		seen = append(seen, e.Booking.ID)
		mu.Unlock()
		return nil
	})

	bus := NewBus(next, 1, 1, logger.Discard())
	bus.SetEnqueueWait(2 * time.Second)
	var dropped int
	bus.OnDrop(func(e *BookingEvent) { dropped++ })
	bus.Start()

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, bus.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking(id), nil, "")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	mu.Lock()
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	mu.Unlock()
	assert.Zero(t, dropped)
}

type recordingProducer struct {
	messages []kafka.Message
	err      error
}

func (p *recordingProducer) Publish(ctx context.Context, msg kafka.Message) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewKafkaPublisher(producer, logger.Discard())

	event := NewBookingEvent(model.ActionCancelled, testBooking("b1"), nil, "alice")
	event.CorrelationID = "req-1"
	require.NoError(t, pub.Publish(context.Background(), event))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, "b1", msg.Key)
	assert.Equal(t, "booking.cancelled", msg.GetEventType())
	assert.Equal(t, event.ID, msg.GetEventID())
	assert.Equal(t, "req-1", msg.GetCorrelationID())
	actor, _ := msg.GetHeader(kafka.HeaderActor)
	assert.Equal(t, "alice", actor)

	var got *BookingEvent
	handler := KafkaHandler(PublisherFunc(func(ctx context.Context, e *BookingEvent) error {
		got = e
		return nil
	}))
	require.NoError(t, handler(context.Background(), msg))
	require.NotNil(t, got)
	assert.Equal(t, model.ActionCancelled, got.Action)
	assert.Equal(t, "b1", got.Booking.ID)
	assert.Equal(t, "alice", got.Actor)
}

func TestKafkaPublisher_ProducerError(t *testing.T) {
	producer := &recordingProducer{err: kafka.ErrProducerClosed}
	pub := NewKafkaPublisher(producer, logger.Discard())

	err := pub.Publish(context.Background(), NewBookingEvent(model.ActionCreated, testBooking("b1"), nil, "alice"))
	assert.ErrorIs(t, err, kafka.ErrProducerClosed)
}

func TestKafkaHandler_PermanentOnBadPayload(t *testing.T) {
	handler := KafkaHandler(PublisherFunc(func(ctx context.Context, e *BookingEvent) error {
		t.Fatal("next must not be called")
		return nil
	}))

	err := handler(context.Background(), kafka.Message{Key: "b1", Value: []byte("{not json")})
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	empty, _ := json.Marshal(BookingEvent{ID: "e1"})
	err = handler(context.Background(), kafka.Message{Key: "b1", Value: empty})
	require.Error(t, err)
	assert.False(t, kafka.ShouldRetry(err, 0, 3))
}

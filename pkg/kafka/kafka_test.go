package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"tourdesk/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("booking-1").
		WithValue(map[string]string{"action": "created"}).
		WithEventType("booking.created").
		WithActor("agent-1").
		WithCorrelationID("").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "booking-1", msg.Key)
	assert.JSONEq(t, `{"action":"created"}`, string(msg.Value))
	assert.Equal(t, "booking.created", msg.GetEventType())
	assert.Equal(t, "agent-1", msg.Headers[HeaderActor])
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
	_, hasCorrelation := msg.GetHeader(HeaderCorrelationID)
	assert.False(t, hasCorrelation)
}

func TestMessageBuilder_EncodeFailureIsPermanent(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	require.Error(t, err)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("store down", errors.New("x")), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("bad payload", nil), ErrorTypePermanent},
		{"wrapped permanent", fmt.Errorf("handler: %w", NewPermanentError("bad", nil)), ErrorTypePermanent},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"network text", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"unknown", errors.New("something odd"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("t", nil)
	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("p", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}

func TestProducer_PublishRunsMiddlewareAndWrites(t *testing.T) {
	writer := &fakeWriter{}
	p := &Producer{writer: writer, topic: "tourdesk.bookings", log: logger.Discard()}

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error {
		order = append(order, "outer:"+msg.Topic)
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error {
		order = append(order, "inner")
		return next(ctx, msg)
	})

	msg, err := NewMessage().WithKey("b1").WithRawValue([]byte(`{}`)).WithEventType("booking.created").Build()
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), msg))

	assert.Equal(t, []string{"outer:tourdesk.bookings", "inner"}, order)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "b1", string(writer.messages[0].Key))
	assert.Equal(t, "booking.created", header(writer.messages[0], HeaderEventType))
}

func TestProducer_PublishValidation(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}, topic: "t", log: logger.Discard()}

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("broker unavailable")
	dlq := &fakeWriter{}
	p := &Producer{writer: &fakeWriter{err: writeErr}, dlqWriter: dlq, topic: "main", log: logger.Discard()}

	err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("v"), Headers: map[string]string{}})
	assert.ErrorIs(t, err, writeErr)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "main", header(dlq.messages[0], HeaderOriginalTopic))
	assert.Equal(t, writeErr.Error(), header(dlq.messages[0], HeaderDLQError))
}

func TestProducer_PublishBatchSkipsInvalid(t *testing.T) {
	writer := &fakeWriter{}
	p := &Producer{writer: writer, topic: "t", log: logger.Discard()}

	err := p.PublishBatch(context.Background(), []Message{
		{Key: "a", Value: []byte("1")},
		{Key: "", Value: []byte("2")},
		{Key: "c", Value: []byte("3")},
	})
	require.NoError(t, err)
	assert.Len(t, writer.messages, 2)

	assert.ErrorIs(t, p.PublishBatch(context.Background(), []Message{{}}), ErrInvalidMessage)
}

func TestConsumer_ProcessMessageRetriesTransient(t *testing.T) {
	attempts := 0
	c := &Consumer{
		topic:      "t",
		maxRetries: 3,
		log:        logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			if attempts < 3 {
				return NewTransientError("store busy", nil)
			}
			return nil
		},
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestConsumer_ProcessMessagePermanentGoesToDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	attempts := 0
	c := &Consumer{
		topic:      "tourdesk.bookings",
		groupID:    "notifier",
		dlqTopic:   "tourdesk.bookings.dlq",
		dlqWriter:  dlq,
		maxRetries: 3,
		log:        logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			return NewPermanentError("undecodable", nil)
		},
	}

	err := c.processMessage(context.Background(), Message{Key: "b1", Value: []byte("{"), Headers: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "notifier", header(dlq.messages[0], HeaderDLQGroup))
	assert.Equal(t, "tourdesk.bookings", header(dlq.messages[0], HeaderOriginalTopic))
}

func TestConvertMessage(t *testing.T) {
	msg := convertMessage(kafka.Message{
		Topic:   "t",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Offset:  42,
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte("booking.updated")}},
	})

	assert.Equal(t, "k", msg.Key)
	assert.Equal(t, int64(42), msg.Offset)
	assert.Equal(t, "booking.updated", msg.GetEventType())
}

package service

import (
	"context"
	"errors"
	"testing"
	"tourdesk/internal/events"
	"tourdesk/internal/notifications/repository"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db/memory"
	"tourdesk/pkg/kafka"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDeliverer struct {
	deliverFunc func(ctx context.Context, recipient string, n *model.Notification) error
	delivered   []string
}

func (m *mockDeliverer) Deliver(ctx context.Context, recipient string, n *model.Notification) error {
	m.delivered = append(m.delivered, recipient)
	if m.deliverFunc != nil {
		return m.deliverFunc(ctx, recipient, n)
	}
	return nil
}

type mockNotificationRepository struct {
	createFunc func(ctx context.Context, n *model.Notification) error
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return m.createFunc(ctx, n)
}

func (m *mockNotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*model.Notification, error) {
	return nil, nil
}

func booking(crew ...string) *model.Booking {
	b := &model.Booking{
		ID:        "b1",
		Resource:  model.ResourceRef{ID: "R1", Name: "Sea Breeze"},
		Window:    model.TimeWindow{Date: "2025-09-20", Start: "10:00", End: "12:00"},
		Status:    model.StatusConfirmed,
		CreatedBy: "alice",
	}
	for _, c := range crew {
		b.Crew = append(b.Crew, model.CrewRef{ID: c})
	}
	return b
}

func TestRecipients(t *testing.T) {
	current := booking("C1", "C2")
	current.Partner = &model.PartnerRef{ID: "partner-7"}
	previous := booking("C2", "C3")

	assert.Equal(t, []string{"C1", "C2", "C3", "alice", "partner-7"}, Recipients(current, previous, "alice"))
	assert.Equal(t, []string{"C1", "C2", "alice", "partner-7"}, Recipients(current, nil, ""))

	t.Run("caller other than the creator", func(t *testing.T) {
		cancelled := booking()
		cancelled.Status = model.StatusCancelled
		cancelled.UpdatedBy = "operator-bob"

		assert.Equal(t, []string{"alice", "operator-bob"}, Recipients(cancelled, booking(), "operator-bob"))
	})

	t.Run("crew member acting on their own booking", func(t *testing.T) {
		assert.Equal(t, []string{"C1", "alice"}, Recipients(booking("C1"), nil, "C1"))
	})
}

func TestNotify_FailingRecipientDoesNotBlockOthers(t *testing.T) {
	store := memory.NewStore()
	repo := repository.NewMemoryNotificationRepository(store)
	deliverer := &mockDeliverer{
		deliverFunc: func(ctx context.Context, recipient string, n *model.Notification) error {
			if recipient == "C1" {
				return errors.New("device unreachable")
			}
			return nil
		},
	}
	svc := NewNotificationService(repo, deliverer, config.Default(logger.Discard()))

	n, err := svc.Notify(context.Background(), booking("C1", "C2"), model.ActionCreated, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2", "alice"}, deliverer.delivered)
	assert.Contains(t, n.Message, "was created")

	for _, rcpt := range []string{"C1", "C2", "alice"} {
		inbox, err := svc.List(context.Background(), rcpt, 10)
		require.NoError(t, err)
		require.Len(t, inbox, 1, rcpt)
		assert.Equal(t, "b1", inbox[0].BookingID)
	}
}

func TestNotify_StoreFailureIsReturned(t *testing.T) {
	repo := &mockNotificationRepository{
		createFunc: func(ctx context.Context, n *model.Notification) error { return errors.New("inbox down") },
	}
	deliverer := &mockDeliverer{}
	svc := NewNotificationService(repo, deliverer, config.Default(logger.Discard()))

	_, err := svc.Notify(context.Background(), booking("C1"), model.ActionCreated, nil, "alice")
	require.Error(t, err)
	assert.Empty(t, deliverer.delivered)
}

func TestNotify_Messages(t *testing.T) {
	svc := NewNotificationService(
		repository.NewMemoryNotificationRepository(memory.NewStore()),
		&mockDeliverer{},
		config.Default(logger.Discard()),
	)
	ctx := context.Background()

	moved := booking("C1")
	moved.Window = model.TimeWindow{Date: "2025-09-20", Start: "14:00", End: "16:00"}
	n, err := svc.Notify(ctx, moved, model.ActionUpdated, booking("C1"), "alice")
	require.NoError(t, err)
	assert.True(t, n.Rescheduled)
	assert.Contains(t, n.Message, "rescheduled")
	require.NotNil(t, n.PreviousSnapshot)
	assert.Equal(t, "10:00", n.PreviousSnapshot.Window.Start)

	edited := booking("C1")
	edited.Notes = "vegetarian lunch"
	n, err = svc.Notify(ctx, edited, model.ActionUpdated, booking("C1"), "alice")
	require.NoError(t, err)
	assert.False(t, n.Rescheduled)
	assert.Contains(t, n.Message, "was updated")

	n, err = svc.Notify(ctx, booking("C1"), model.ActionCancelled, nil, "alice")
	require.NoError(t, err)
	assert.Contains(t, n.Message, "was cancelled")
}

func TestList_NewestFirstAndLimit(t *testing.T) {
	svc := NewNotificationService(
		repository.NewMemoryNotificationRepository(memory.NewStore()),
		&mockDeliverer{},
		config.Default(logger.Discard()),
	)
	ctx := context.Background()

	first, err := svc.Notify(ctx, booking("C1"), model.ActionCreated, nil, "alice")
	require.NoError(t, err)
	second, err := svc.Notify(ctx, booking("C1"), model.ActionCancelled, nil, "alice")
	require.NoError(t, err)

	inbox, err := svc.List(ctx, "C1", 10)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	if inbox[0].CreatedAt.Equal(inbox[1].CreatedAt) {
		assert.ElementsMatch(t, []string{first.ID, second.ID}, []string{inbox[0].ID, inbox[1].ID})
	} else {
		assert.Equal(t, second.ID, inbox[0].ID)
	}

	limited, err := svc.List(ctx, "C1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = svc.List(ctx, "", 10)
	assert.Error(t, err)
}

func TestHandle_UsesEventSnapshots(t *testing.T) {
	deliverer := &mockDeliverer{}
	svc := NewNotificationService(
		repository.NewMemoryNotificationRepository(memory.NewStore()),
		deliverer,
		config.Default(logger.Discard()),
	)

	event := events.NewBookingEvent(model.ActionUpdated, booking("C2"), booking("C1"), "operator-bob")
	require.NoError(t, svc.Handle(context.Background(), event))
	assert.Equal(t, []string{"C2", "C1", "alice", "operator-bob"}, deliverer.delivered)
}

type recordingPublisher struct {
	messages []kafka.Message
}

func (p *recordingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func TestKafkaDeliverer_KeyedByRecipient(t *testing.T) {
	producer := &recordingPublisher{}
	d := NewKafkaDeliverer(producer)

	n := &model.Notification{ID: "n1", BookingID: "b1", Action: model.ActionCreated}
	require.NoError(t, d.Deliver(context.Background(), "C1", n))
	require.Len(t, producer.messages, 1)
	assert.Equal(t, "C1", producer.messages[0].Key)
	assert.Equal(t, "notification.created", producer.messages[0].GetEventType())

	var payload deliveryPayload
	require.NoError(t, producer.messages[0].DecodeValue(&payload))
	assert.Equal(t, "C1", payload.Recipient)
	assert.Equal(t, "b1", payload.Notification.BookingID)
}

package service

import (
	"context"
	"errors"
	"testing"
	"tourdesk/internal/events"
	"tourdesk/internal/utilization/repository"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db/memory"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookingsByDate struct {
	findFunc func(ctx context.Context, date string) ([]*model.Booking, error)
	calls    int
}

func (m *mockBookingsByDate) FindActiveByDate(ctx context.Context, date string) ([]*model.Booking, error) {
	m.calls++
	return m.findFunc(ctx, date)
}

func booking(id, resource, date, start, end string, status model.BookingStatus, crew ...string) *model.Booking {
	b := &model.Booking{
		ID:       id,
		Resource: model.ResourceRef{ID: resource},
		Window:   model.TimeWindow{Date: date, Start: start, End: end},
		Status:   status,
	}
	for _, c := range crew {
		b.Crew = append(b.Crew, model.CrewRef{ID: c})
	}
	return b
}

func TestAggregate(t *testing.T) {
	rec := Aggregate("2025-09-20", []*model.Booking{
		booking("a", "R1", "2025-09-20", "10:00", "12:00", model.StatusConfirmed, "C1", "C2"),
		booking("b", "R1", "2025-09-20", "13:00", "13:30", model.StatusPending, "C1"),
		booking("c", "R2", "2025-09-20", "22:00", "24:00", model.StatusCompleted),
		booking("d", "R2", "2025-09-20", "08:00", "09:00", model.StatusCancelled, "C1"),
		booking("e", "R1", "2025-09-21", "08:00", "09:00", model.StatusPending),
	})

	assert.Equal(t, 3, rec.TotalActiveBookings)
	assert.InDelta(t, 2.5, rec.ResourceHours["R1"], 1e-9)
	assert.InDelta(t, 2.0, rec.ResourceHours["R2"], 1e-9)
	assert.InDelta(t, 2.5, rec.CrewHours["C1"], 1e-9)
	assert.InDelta(t, 2.0, rec.CrewHours["C2"], 1e-9)
}

func TestGet_RecomputesWhenMissing(t *testing.T) {
	bookings := &mockBookingsByDate{
		findFunc: func(ctx context.Context, date string) ([]*model.Booking, error) {
			return []*model.Booking{booking("a", "R1", date, "10:00", "11:00", model.StatusConfirmed)}, nil
		},
	}
	svc := NewUtilizationService(repository.NewMemoryUtilizationRepository(memory.NewStore()), bookings, config.Default(logger.Discard()))

	rec, err := svc.Get(context.Background(), "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalActiveBookings)
	assert.Equal(t, 1, bookings.calls)

	_, err = svc.Get(context.Background(), "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 1, bookings.calls, "stored record is served without recomputing")
}

func TestGet_RecomputesInvalidatedDate(t *testing.T) {
	active := []*model.Booking{booking("a", "R1", "2025-09-20", "10:00", "11:00", model.StatusConfirmed)}
	bookings := &mockBookingsByDate{
		findFunc: func(ctx context.Context, date string) ([]*model.Booking, error) {
			return active, nil
		},
	}
	svc := NewUtilizationService(repository.NewMemoryUtilizationRepository(memory.NewStore()), bookings, config.Default(logger.Discard()))
	ctx := context.Background()

	rec, err := svc.Get(ctx, "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalActiveBookings)

	// a booking lands without its event reaching Handle
	active = append(active, booking("b", "R2", "2025-09-20", "12:00", "13:00", model.StatusPending))
	rec, err = svc.Get(ctx, "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalActiveBookings, "stored record is served until invalidated")

	svc.Invalidate("2025-09-20")
	rec, err = svc.Get(ctx, "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.TotalActiveBookings)
	assert.Equal(t, 2, bookings.calls)

	_, err = svc.Get(ctx, "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 2, bookings.calls, "invalidation is cleared by the recompute")
}

func TestRecompute_FailureLeavesDateStale(t *testing.T) {
	fail := true
	bookings := &mockBookingsByDate{
		findFunc: func(ctx context.Context, date string) ([]*model.Booking, error) {
			if fail {
				return nil, errors.New("store unavailable")
			}
			return nil, nil
		},
	}
	repo := repository.NewMemoryUtilizationRepository(memory.NewStore())
	svc := NewUtilizationService(repo, bookings, config.Default(logger.Discard()))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &model.UtilizationRecord{Date: "2025-09-20", TotalActiveBookings: 7}))
	_, err := svc.Recompute(ctx, "2025-09-20")
	require.Error(t, err)

	fail = false
	rec, err := svc.Get(ctx, "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.TotalActiveBookings)
}

func TestHandle_RecomputesEveryTouchedDate(t *testing.T) {
	var dates []string
	bookings := &mockBookingsByDate{
		findFunc: func(ctx context.Context, date string) ([]*model.Booking, error) {
			dates = append(dates, date)
			return nil, nil
		},
	}
	svc := NewUtilizationService(repository.NewMemoryUtilizationRepository(memory.NewStore()), bookings, config.Default(logger.Discard()))

	prev := booking("a", "R1", "2025-09-20", "10:00", "11:00", model.StatusConfirmed)
	cur := booking("a", "R1", "2025-09-22", "10:00", "11:00", model.StatusConfirmed)
	require.NoError(t, svc.Handle(context.Background(), events.NewBookingEvent(model.ActionUpdated, cur, prev, "alice")))
	assert.Equal(t, []string{"2025-09-22", "2025-09-20"}, dates)
}

func TestRecompute_StoreError(t *testing.T) {
	bookings := &mockBookingsByDate{
		findFunc: func(ctx context.Context, date string) ([]*model.Booking, error) {
			return nil, errors.New("store unavailable")
		},
	}
	svc := NewUtilizationService(repository.NewMemoryUtilizationRepository(memory.NewStore()), bookings, config.Default(logger.Discard()))

	_, err := svc.Recompute(context.Background(), "2025-09-20")
	assert.Error(t, err)
}

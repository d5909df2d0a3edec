package repository

import (
	"context"
	"errors"
	"testing"
	bookingserrors "tourdesk/internal/bookings/errors"
	"tourdesk/pkg/db/memory"
	"tourdesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(id, resourceID, date, start, end string, status model.BookingStatus, crew ...string) *model.Booking {
	b := &model.Booking{
		ID:       id,
		Resource: model.ResourceRef{ID: resourceID},
		Window:   model.TimeWindow{Date: date, Start: start, End: end},
		Status:   status,
	}
	for _, c := range crew {
		b.Crew = append(b.Crew, model.CrewRef{ID: c})
	}
	return b
}

func seed(t *testing.T, repo BookingRepository, bookings ...*model.Booking) {
	t.Helper()
	for _, b := range bookings {
		require.NoError(t, repo.Create(context.Background(), b))
	}
}

func TestMemoryBookingRepository_CreateFind(t *testing.T) {
	repo := NewMemoryBookingRepository(memory.NewStore())
	ctx := context.Background()

	b := newBooking("b1", "R1", "2025-09-20", "10:00", "12:00", model.StatusPending, "C1")
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, int64(1), b.Version)
	assert.False(t, b.CreatedAt.IsZero())

	err := repo.Create(ctx, newBooking("b1", "R1", "2025-09-20", "13:00", "14:00", model.StatusPending))
	assert.True(t, errors.Is(err, bookingserrors.ErrDuplicateID))

	found, err := repo.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "R1", found.Resource.ID)

	// returned values are copies
	found.Crew[0].ID = "mutated"
	again, _ := repo.FindByID(ctx, "b1")
	assert.Equal(t, "C1", again.Crew[0].ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
}

func TestMemoryBookingRepository_UpdateVersionCheck(t *testing.T) {
	repo := NewMemoryBookingRepository(memory.NewStore())
	ctx := context.Background()
	seed(t, repo, newBooking("b1", "R1", "2025-09-20", "10:00", "12:00", model.StatusPending))

	b, _ := repo.FindByID(ctx, "b1")
	b.Status = model.StatusConfirmed
	require.NoError(t, repo.Update(ctx, b, 1))
	assert.Equal(t, int64(2), b.Version)

	stale, _ := repo.FindByID(ctx, "b1")
	stale.Notes = "late writer"
	assert.ErrorIs(t, repo.Update(ctx, stale, 1), bookingserrors.ErrVersionConflict)

	assert.ErrorIs(t, repo.Update(ctx, newBooking("nope", "R1", "2025-09-20", "10:00", "11:00", model.StatusPending), 1), bookingserrors.ErrNotFound)
}

func TestMemoryBookingRepository_ListFilterAndOrder(t *testing.T) {
	repo := NewMemoryBookingRepository(memory.NewStore())
	ctx := context.Background()
	seed(t, repo,
		newBooking("c", "R1", "2025-09-21", "08:00", "09:00", model.StatusPending, "C1"),
		newBooking("a", "R1", "2025-09-20", "12:00", "13:00", model.StatusConfirmed),
		newBooking("b", "R2", "2025-09-20", "09:00", "10:00", model.StatusCancelled, "C1"),
		newBooking("d", "R1", "2025-09-20", "09:00", "10:00", model.StatusPending),
	)

	all, err := repo.List(ctx, model.BookingFilter{}, 10, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, b := range all {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)

	page, _ := repo.List(ctx, model.BookingFilter{}, 2, 1)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].ID)

	empty, _ := repo.List(ctx, model.BookingFilter{}, 2, 10)
	assert.Empty(t, empty)

	r1, _ := repo.List(ctx, model.BookingFilter{ResourceID: "R1", DateTo: "2025-09-20"}, 10, 0)
	assert.Len(t, r1, 2)

	count, _ := repo.Count(ctx, model.BookingFilter{CrewID: "C1"})
	assert.Equal(t, int64(2), count)

	active, _ := repo.FindActiveByCrewDate(ctx, "C1", "2025-09-20")
	assert.Empty(t, active)

	day, _ := repo.FindActiveByDate(ctx, "2025-09-20")
	assert.Len(t, day, 2)

	onR1, _ := repo.FindActiveByResourceDate(ctx, "R1", "2025-09-20")
	assert.Len(t, onR1, 2)
}

func TestMemoryBookingRepository_TransactionalWrites(t *testing.T) {
	store := memory.NewStore()
	repo := NewMemoryBookingRepository(store)

	err := store.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		if err := repo.Create(ctx, newBooking("b1", "R1", "2025-09-20", "10:00", "12:00", model.StatusPending)); err != nil {
			return err
		}
		return errors.New("projection failed")
	})
	require.Error(t, err)

	_, err = repo.FindByID(context.Background(), "b1")
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
}

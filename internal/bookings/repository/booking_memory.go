package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	bookingserrors "tourdesk/internal/bookings/errors"
	"tourdesk/pkg/db/memory"
	"tourdesk/pkg/model"
)

type memoryBookingRepository struct {
	table *memory.Table[*model.Booking]
}

func NewMemoryBookingRepository(store *memory.Store) BookingRepository {
	return &memoryBookingRepository{
		table: memory.NewTable[*model.Booking](store),
	}
}

func (r *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Version == 0 {
		booking.Version = 1
	}

	err := r.table.Insert(ctx, booking.ID, booking.Clone())
	if errors.Is(err, memory.ErrDuplicate) {
		return fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateID, booking.ID)
	}
	return err
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b, ok := r.table.Get(id)
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *memoryBookingRepository) Update(ctx context.Context, booking *model.Booking, expectedVersion int64) error {
	booking.Version = expectedVersion + 1
	booking.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	err := r.table.Replace(ctx, booking.ID, booking.Clone(), func(current *model.Booking) error {
		if current.Version != expectedVersion {
			return bookingserrors.ErrVersionConflict
		}
		return nil
	})
	if errors.Is(err, memory.ErrNotFound) {
		return bookingserrors.ErrNotFound
	}
	return err
}

func (r *memoryBookingRepository) Delete(ctx context.Context, id string) error {
	err := r.table.Delete(ctx, id)
	if errors.Is(err, memory.ErrNotFound) {
		return bookingserrors.ErrNotFound
	}
	return err
}

func (r *memoryBookingRepository) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	matches := r.collect(filter.Matches)
	sortBookings(matches)

	if offset >= int64(len(matches)) {
		return []*model.Booking{}, nil
	}
	end := int(offset) + limit
	if limit <= 0 || end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

func (r *memoryBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	return int64(len(r.collect(filter.Matches))), nil
}

func (r *memoryBookingRepository) FindActiveByResourceDate(ctx context.Context, resourceID, date string) ([]*model.Booking, error) {
	return r.collect(func(b *model.Booking) bool {
		return b.IsActive() && b.Resource.ID == resourceID && b.Window.Date == date
	}), nil
}

func (r *memoryBookingRepository) FindActiveByCrewDate(ctx context.Context, crewID, date string) ([]*model.Booking, error) {
	return r.collect(func(b *model.Booking) bool {
		return b.IsActive() && b.Window.Date == date && b.HasCrewMember(crewID)
	}), nil
}

func (r *memoryBookingRepository) FindActiveByDate(ctx context.Context, date string) ([]*model.Booking, error) {
	bookings := r.collect(func(b *model.Booking) bool {
		return b.IsActive() && b.Window.Date == date
	})
	sortBookings(bookings)
	return bookings, nil
}

func (r *memoryBookingRepository) collect(match func(*model.Booking) bool) []*model.Booking {
	out := make([]*model.Booking, 0)
	r.table.Scan(func(_ string, b *model.Booking) bool {
		if match(b) {
			out = append(out, b.Clone())
		}
		return true
	})
	return out
}

func sortBookings(bookings []*model.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].Window.Equal(bookings[j].Window) {
			return bookings[i].Window.Less(bookings[j].Window)
		}
		return bookings[i].ID < bookings[j].ID
	})
}

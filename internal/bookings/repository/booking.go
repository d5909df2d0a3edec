package repository

import (
	"context"
	"tourdesk/pkg/model"
)

const (
	CollectionName = "Bookings"
)

// BookingRepository is the authoritative booking store. List results are
// ordered by date, start time and id.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// Update replaces the booking if its stored version equals expectedVersion
	// and bumps the version; otherwise it returns ErrVersionConflict.
	Update(ctx context.Context, booking *model.Booking, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	FindActiveByResourceDate(ctx context.Context, resourceID, date string) ([]*model.Booking, error)
	FindActiveByCrewDate(ctx context.Context, crewID, date string) ([]*model.Booking, error)
	FindActiveByDate(ctx context.Context, date string) ([]*model.Booking, error)
}

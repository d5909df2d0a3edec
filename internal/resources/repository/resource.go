package repository

import (
	"context"
	"tourdesk/pkg/model"
)

const (
	CollectionName         = "Resources"
	CalendarCollectionName = "Resource_calendars"
)

type ResourceRepository interface {
	Create(ctx context.Context, resource *model.Resource) error
	// Upsert inserts or replaces the resource, keeping the original creation time.
	Upsert(ctx context.Context, resource *model.Resource) error
	FindByID(ctx context.Context, id string) (*model.Resource, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error)
	Count(ctx context.Context) (int64, error)
}

// CalendarRepository stores the derived availability calendar, one document
// per resource and date.
type CalendarRepository interface {
	// FindDay returns nil without error when nothing is stored for the day.
	FindDay(ctx context.Context, resourceID, date string) (*model.CalendarDay, error)
	// Put stores the day, or removes it when it has no entries.
	Put(ctx context.Context, day *model.CalendarDay) error
}

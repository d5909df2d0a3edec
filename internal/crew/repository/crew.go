package repository

import (
	"context"
	"tourdesk/pkg/model"
)

const (
	CollectionName         = "Crew_members"
	ScheduleCollectionName = "Crew_schedules"
)

type CrewRepository interface {
	Create(ctx context.Context, member *model.CrewMember) error
	Upsert(ctx context.Context, member *model.CrewMember) error
	FindByID(ctx context.Context, id string) (*model.CrewMember, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.CrewMember, error)
	Count(ctx context.Context) (int64, error)
}

// ScheduleRepository stores the derived crew schedule, one document per
// member and date.
type ScheduleRepository interface {
	// FindDay returns nil without error when nothing is stored for the day.
	FindDay(ctx context.Context, crewID, date string) (*model.CrewDay, error)
	// Put stores the day, or removes it when no booking is left on it.
	Put(ctx context.Context, day *model.CrewDay) error
}

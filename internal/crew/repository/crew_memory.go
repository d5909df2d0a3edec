package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	crewerrors "tourdesk/internal/crew/errors"
	"tourdesk/pkg/db/memory"
	"tourdesk/pkg/model"
)

type memoryCrewRepository struct {
	table *memory.Table[model.CrewMember]
}

func NewMemoryCrewRepository(store *memory.Store) CrewRepository {
	return &memoryCrewRepository{
		table: memory.NewTable[model.CrewMember](store),
	}
}

func (r *memoryCrewRepository) Create(ctx context.Context, member *model.CrewMember) error {
	member.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	err := r.table.Insert(ctx, member.ID, cloneMember(*member))
	if errors.Is(err, memory.ErrDuplicate) {
		return fmt.Errorf("%w: %s", crewerrors.ErrDuplicateID, member.ID)
	}
	return err
}

func (r *memoryCrewRepository) Upsert(ctx context.Context, member *model.CrewMember) error {
	if existing, ok := r.table.Get(member.ID); ok {
		member.CreatedAt = existing.CreatedAt
	} else {
		member.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	return r.table.Put(ctx, member.ID, cloneMember(*member))
}

func (r *memoryCrewRepository) FindByID(ctx context.Context, id string) (*model.CrewMember, error) {
	member, ok := r.table.Get(id)
	if !ok {
		return nil, crewerrors.ErrNotFound
	}
	c := cloneMember(member)
	return &c, nil
}

func (r *memoryCrewRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.CrewMember, error) {
	all := make([]*model.CrewMember, 0, r.table.Len())
	r.table.Scan(func(_ string, v model.CrewMember) bool {
		c := cloneMember(v)
		all = append(all, &c)
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= int64(len(all)) {
		return []*model.CrewMember{}, nil
	}
	end := min(int64(len(all)), offset+int64(limit))
	return all[offset:end], nil
}

func (r *memoryCrewRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.table.Len()), nil
}

func cloneMember(m model.CrewMember) model.CrewMember {
	m.Qualifications = append([]string(nil), m.Qualifications...)
	return m
}

type memoryScheduleRepository struct {
	table *memory.Table[*model.CrewDay]
}

func NewMemoryScheduleRepository(store *memory.Store) ScheduleRepository {
	return &memoryScheduleRepository{
		table: memory.NewTable[*model.CrewDay](store),
	}
}

func (r *memoryScheduleRepository) FindDay(ctx context.Context, crewID, date string) (*model.CrewDay, error) {
	day, ok := r.table.Get(model.CrewDayID(crewID, date))
	if !ok {
		return nil, nil
	}
	return cloneCrewDay(day), nil
}

func (r *memoryScheduleRepository) Put(ctx context.Context, day *model.CrewDay) error {
	day.ID = model.CrewDayID(day.CrewID, day.Date)
	if len(day.BookingIDs) == 0 {
		return r.table.Remove(ctx, day.ID)
	}
	day.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return r.table.Put(ctx, day.ID, cloneCrewDay(day))
}

func cloneCrewDay(day *model.CrewDay) *model.CrewDay {
	c := *day
	c.BookingIDs = append([]string(nil), day.BookingIDs...)
	return &c
}

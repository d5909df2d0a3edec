package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	resourceserrors "tourdesk/internal/resources/errors"
	"tourdesk/pkg/db/memory"
	"tourdesk/pkg/model"
)

type memoryResourceRepository struct {
	table *memory.Table[model.Resource]
}

func NewMemoryResourceRepository(store *memory.Store) ResourceRepository {
	return &memoryResourceRepository{
		table: memory.NewTable[model.Resource](store),
	}
}

func (r *memoryResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	resource.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	err := r.table.Insert(ctx, resource.ID, *resource)
	if errors.Is(err, memory.ErrDuplicate) {
		return fmt.Errorf("%w: %s", resourceserrors.ErrDuplicateID, resource.ID)
	}
	return err
}

func (r *memoryResourceRepository) Upsert(ctx context.Context, resource *model.Resource) error {
	if existing, ok := r.table.Get(resource.ID); ok {
		resource.CreatedAt = existing.CreatedAt
	} else {
		resource.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	return r.table.Put(ctx, resource.ID, *resource)
}

func (r *memoryResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	resource, ok := r.table.Get(id)
	if !ok {
		return nil, resourceserrors.ErrNotFound
	}
	return &resource, nil
}

func (r *memoryResourceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	all := make([]*model.Resource, 0, r.table.Len())
	r.table.Scan(func(_ string, v model.Resource) bool {
		all = append(all, &v)
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= int64(len(all)) {
		return []*model.Resource{}, nil
	}
	end := min(int64(len(all)), offset+int64(limit))
	return all[offset:end], nil
}

func (r *memoryResourceRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.table.Len()), nil
}

type memoryCalendarRepository struct {
	table *memory.Table[*model.CalendarDay]
}

func NewMemoryCalendarRepository(store *memory.Store) CalendarRepository {
	return &memoryCalendarRepository{
		table: memory.NewTable[*model.CalendarDay](store),
	}
}

func (r *memoryCalendarRepository) FindDay(ctx context.Context, resourceID, date string) (*model.CalendarDay, error) {
	day, ok := r.table.Get(model.CalendarDayID(resourceID, date))
	if !ok {
		return nil, nil
	}
	return cloneDay(day), nil
}

func (r *memoryCalendarRepository) Put(ctx context.Context, day *model.CalendarDay) error {
	day.ID = model.CalendarDayID(day.ResourceID, day.Date)
	if len(day.Entries) == 0 {
		return r.table.Remove(ctx, day.ID)
	}
	day.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return r.table.Put(ctx, day.ID, cloneDay(day))
}

func cloneDay(day *model.CalendarDay) *model.CalendarDay {
	c := *day
	c.Entries = append([]model.CalendarEntry(nil), day.Entries...)
	return &c
}

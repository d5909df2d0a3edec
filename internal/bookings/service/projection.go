package service

import (
	"context"
	"fmt"
	"sort"
	"tourdesk/pkg/model"
)

type dayKey struct {
	id   string
	date string
}

// project rewrites every calendar day and crew day touched by a mutation of
// one booking from previous to current. current is nil when the booking is
// deleted. Committed bookings are read and the mutated booking is overlaid on
// them, since the write it belongs to may not be visible yet.
func (s *bookingService) project(ctx context.Context, current, previous *model.Booking) error {
	ref := current
	if ref == nil {
		ref = previous
	}
	if ref == nil {
		return nil
	}

	resourceDays := make([]dayKey, 0, 2)
	crewDays := make([]dayKey, 0, 4)
	seen := make(map[string]bool)
	for _, b := range []*model.Booking{previous, current} {
		if b == nil {
			continue
		}
		rk := "r|" + b.Resource.ID + "|" + b.Window.Date
		if !seen[rk] {
			seen[rk] = true
			resourceDays = append(resourceDays, dayKey{id: b.Resource.ID, date: b.Window.Date})
		}
		for _, c := range b.Crew {
			ck := "c|" + c.ID + "|" + b.Window.Date
			if !seen[ck] {
				seen[ck] = true
				crewDays = append(crewDays, dayKey{id: c.ID, date: b.Window.Date})
			}
		}
	}

	for _, day := range resourceDays {
		if err := s.projectCalendarDay(ctx, day, ref.ID, current); err != nil {
			return err
		}
	}
	for _, day := range crewDays {
		if err := s.projectCrewDay(ctx, day, ref.ID, current); err != nil {
			return err
		}
	}
	return nil
}

func (s *bookingService) projectCalendarDay(ctx context.Context, key dayKey, bookingID string, current *model.Booking) error {
	committed, err := s.repo.FindActiveByResourceDate(ctx, key.id, key.date)
	if err != nil {
		return fmt.Errorf("load bookings of resource %s on %s: %w", key.id, key.date, err)
	}
	active := overlay(committed, bookingID, current, func(b *model.Booking) bool {
		return b.Resource.ID == key.id && b.Window.Date == key.date
	})

	day, err := s.calendar.FindDay(ctx, key.id, key.date)
	if err != nil {
		return fmt.Errorf("load calendar of resource %s on %s: %w", key.id, key.date, err)
	}
	if day == nil {
		day = model.NewCalendarDay(key.id, key.date)
	}

	entries := day.EntriesByReason(model.ReasonMaintenance)
	for _, b := range active {
		entries = append(entries, model.CalendarEntry{
			Window:    b.Window,
			Reason:    model.ReasonBooked,
			BookingID: b.ID,
		})
	}
	model.SortCalendarEntries(entries)
	day.Entries = entries

	return s.calendar.Put(ctx, day)
}

func (s *bookingService) projectCrewDay(ctx context.Context, key dayKey, bookingID string, current *model.Booking) error {
	committed, err := s.repo.FindActiveByCrewDate(ctx, key.id, key.date)
	if err != nil {
		return fmt.Errorf("load bookings of crew %s on %s: %w", key.id, key.date, err)
	}
	active := overlay(committed, bookingID, current, func(b *model.Booking) bool {
		return b.HasCrewMember(key.id) && b.Window.Date == key.date
	})

	day := model.NewCrewDay(key.id, key.date)
	for _, b := range active {
		day.BookingIDs = append(day.BookingIDs, b.ID)
	}
	sort.Strings(day.BookingIDs)

	return s.schedules.Put(ctx, day)
}

// overlay replaces the committed copy of bookingID with current, keeping only
// active bookings that belong to the day.
func overlay(committed []*model.Booking, bookingID string, current *model.Booking, belongs func(*model.Booking) bool) []*model.Booking {
	out := make([]*model.Booking, 0, len(committed)+1)
	for _, b := range committed {
		if b.ID == bookingID || !b.IsActive() || !belongs(b) {
			continue
		}
		out = append(out, b)
	}
	if current != nil && current.IsActive() && belongs(current) {
		out = append(out, current)
	}
	return out
}

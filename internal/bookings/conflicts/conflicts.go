// Package conflicts decides whether a candidate booking can coexist with the
// bookings and maintenance windows already on the schedule.
package conflicts

import (
	"context"
	"fmt"
	"sort"
	"tourdesk/pkg/model"
)

// Detect returns every conflict between candidate and the given schedule.
// resourceBookings are bookings on the candidate's resource and date.
// crewBookings maps each candidate crew id to that member's bookings on the date.
// Cancelled bookings and the booking identified by excludeID never conflict.
func Detect(
	candidate *model.Booking,
	resourceBookings []*model.Booking,
	crewBookings map[string][]*model.Booking,
	maintenance []model.CalendarEntry,
	excludeID string,
) []model.Conflict {
	conflicts := make([]model.Conflict, 0)

	for _, existing := range sortedBookings(resourceBookings) {
		if !participates(existing, candidate, excludeID) || existing.Resource.ID != candidate.Resource.ID {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			Type:       model.ConflictResourceOverlap,
			Reason:     fmt.Sprintf("resource %s is already booked %s by booking %s", existing.Resource.ID, existing.Window, existing.ID),
			BookingID:  existing.ID,
			ResourceID: existing.Resource.ID,
			Window:     existing.Window,
		})
	}

	for _, crewID := range candidate.CrewIDs() {
		for _, existing := range sortedBookings(crewBookings[crewID]) {
			if !participates(existing, candidate, excludeID) || !existing.HasCrewMember(crewID) {
				continue
			}
			conflicts = append(conflicts, model.Conflict{
				Type:      model.ConflictCrewOverlap,
				Reason:    fmt.Sprintf("crew member %s is already assigned %s to booking %s", crewID, existing.Window, existing.ID),
				BookingID: existing.ID,
				CrewID:    crewID,
				Window:    existing.Window,
			})
		}
	}

	for _, entry := range maintenance {
		if entry.Reason != model.ReasonMaintenance || !entry.Window.Overlaps(candidate.Window) {
			continue
		}
		reason := fmt.Sprintf("resource %s is under maintenance %s", candidate.Resource.ID, entry.Window)
		if entry.Note != "" {
			reason += ": " + entry.Note
		}
		conflicts = append(conflicts, model.Conflict{
			Type:       model.ConflictMaintenanceOverlap,
			Reason:     reason,
			ResourceID: candidate.Resource.ID,
			Window:     entry.Window,
		})
	}

	return conflicts
}

func participates(existing, candidate *model.Booking, excludeID string) bool {
	if existing.ID == excludeID || existing.ID == candidate.ID {
		return false
	}
	if !existing.IsActive() {
		return false
	}
	return existing.Window.Overlaps(candidate.Window)
}

func sortedBookings(in []*model.Booking) []*model.Booking {
	out := append([]*model.Booking(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Window.Equal(out[j].Window) {
			return out[i].Window.Less(out[j].Window)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// BookingSource lists active bookings by resource or crew member on a date.
type BookingSource interface {
	FindActiveByResourceDate(ctx context.Context, resourceID, date string) ([]*model.Booking, error)
	FindActiveByCrewDate(ctx context.Context, crewID, date string) ([]*model.Booking, error)
}

// MaintenanceSource returns the calendar day of a resource, or nil if none is stored.
type MaintenanceSource interface {
	FindDay(ctx context.Context, resourceID, date string) (*model.CalendarDay, error)
}

type Checker struct {
	bookings BookingSource
	calendar MaintenanceSource
}

func NewChecker(bookings BookingSource, calendar MaintenanceSource) *Checker {
	return &Checker{
		bookings: bookings,
		calendar: calendar,
	}
}

// CheckConflicts loads the schedule around candidate and runs Detect. It reads
// committed state only and takes no locks; callers serialise with the
// scheduling locks when the answer must stay true until a write.
func (c *Checker) CheckConflicts(ctx context.Context, candidate *model.Booking, excludeID string) ([]model.Conflict, error) {
	date := candidate.Window.Date

	resourceBookings, err := c.bookings.FindActiveByResourceDate(ctx, candidate.Resource.ID, date)
	if err != nil {
		return nil, fmt.Errorf("load resource bookings: %w", err)
	}

	crewBookings := make(map[string][]*model.Booking, len(candidate.Crew))
	for _, crewID := range candidate.CrewIDs() {
		bookings, err := c.bookings.FindActiveByCrewDate(ctx, crewID, date)
		if err != nil {
			return nil, fmt.Errorf("load crew %s bookings: %w", crewID, err)
		}
		crewBookings[crewID] = bookings
	}

	var maintenance []model.CalendarEntry
	if c.calendar != nil {
		day, err := c.calendar.FindDay(ctx, candidate.Resource.ID, date)
		if err != nil {
			return nil, fmt.Errorf("load calendar: %w", err)
		}
		if day != nil {
			maintenance = day.EntriesByReason(model.ReasonMaintenance)
		}
	}

	return Detect(candidate, resourceBookings, crewBookings, maintenance, excludeID), nil
}

package model

import (
	"sort"
	"time"
)

type ResourceKind string

const (
	KindBoat       ResourceKind = "boat"
	KindHelicopter ResourceKind = "helicopter"
	KindBuggy      ResourceKind = "buggy"
)

type Resource struct {
	ID        string       `json:"id" bson:"_id" validate:"required,min=1,max=64"`
	Name      string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Kind      ResourceKind `json:"kind" bson:"kind" validate:"required,oneof=boat helicopter buggy"`
	Capacity  int          `json:"capacity" bson:"capacity" validate:"required,min=1,max=1000"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}

func (r *Resource) Ref() ResourceRef {
	return ResourceRef{ID: r.ID, Kind: r.Kind, Name: r.Name}
}

type UnavailabilityReason string

const (
	ReasonBooked      UnavailabilityReason = "booked"
	ReasonMaintenance UnavailabilityReason = "maintenance"
)

type CalendarEntry struct {
	Window    TimeWindow           `json:"window" bson:"window"`
	Reason    UnavailabilityReason `json:"reason" bson:"reason"`
	BookingID string               `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	Note      string               `json:"note,omitempty" bson:"note,omitempty"`
}

// CalendarDay holds every unavailable window of one resource on one date.
type CalendarDay struct {
	ID         string          `json:"-" bson:"_id"`
	ResourceID string          `json:"resource_id" bson:"resource_id"`
	Date       string          `json:"date" bson:"date"`
	Entries    []CalendarEntry `json:"entries" bson:"entries"`
	UpdatedAt  time.Time       `json:"updated_at" bson:"updated_at"`
}

func CalendarDayID(resourceID, date string) string {
	return resourceID + "|" + date
}

func NewCalendarDay(resourceID, date string) *CalendarDay {
	return &CalendarDay{
		ID:         CalendarDayID(resourceID, date),
		ResourceID: resourceID,
		Date:       date,
		Entries:    []CalendarEntry{},
	}
}

func (d *CalendarDay) EntriesByReason(reason UnavailabilityReason) []CalendarEntry {
	out := make([]CalendarEntry, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out
}

func SortCalendarEntries(entries []CalendarEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Window.Equal(entries[j].Window) {
			return entries[i].Window.Less(entries[j].Window)
		}
		return entries[i].BookingID < entries[j].BookingID
	})
}

// MaintenanceRequest declares a window during which a resource cannot be booked.
type MaintenanceRequest struct {
	Window TimeWindow `json:"window" validate:"required"`
	Note   string     `json:"note,omitempty" validate:"max=500"`
}

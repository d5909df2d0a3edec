package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Staying in the same state is always allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ResourceRef struct {
	ID   string       `json:"id" bson:"id"`
	Kind ResourceKind `json:"kind" bson:"kind"`
	Name string       `json:"name" bson:"name"`
}

type CrewRef struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type PartnerRef struct {
	ID   string `json:"id" bson:"id" validate:"required,min=1,max=64"`
	Name string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=100"`
}

type Booking struct {
	ID        string        `json:"id" bson:"_id"`
	Resource  ResourceRef   `json:"resource" bson:"resource"`
	Crew      []CrewRef     `json:"crew" bson:"crew"`
	Partner   *PartnerRef   `json:"partner,omitempty" bson:"partner,omitempty"`
	Window    TimeWindow    `json:"window" bson:"window"`
	Status    BookingStatus `json:"status" bson:"status"`
	Guests    int           `json:"guests" bson:"guests"`
	Price     float64       `json:"price" bson:"price"`
	Notes     string        `json:"notes,omitempty" bson:"notes,omitempty"`
	Version   int64         `json:"version" bson:"version"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
	CreatedBy string        `json:"created_by" bson:"created_by"`
	UpdatedBy string        `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

func (b *Booking) CrewIDs() []string {
	ids := make([]string, 0, len(b.Crew))
	for _, c := range b.Crew {
		ids = append(ids, c.ID)
	}
	return ids
}

func (b *Booking) HasCrewMember(crewID string) bool {
	for _, c := range b.Crew {
		if c.ID == crewID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshots survive later mutation.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.Crew = append([]CrewRef(nil), b.Crew...)
	if b.Partner != nil {
		p := *b.Partner
		c.Partner = &p
	}
	return &c
}

// BookingDraft is the inbound request for a new booking.
type BookingDraft struct {
	ResourceID string        `json:"resource_id" validate:"required,min=1,max=64"`
	CrewIDs    []string      `json:"crew_ids" validate:"omitempty,max=50,unique,dive,required,min=1,max=64"`
	Partner    *PartnerRef   `json:"partner,omitempty" validate:"omitempty"`
	Window     TimeWindow    `json:"window" validate:"required"`
	Status     BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
	Guests     int           `json:"guests" validate:"gte=0,lte=1000"`
	Price      float64       `json:"price" validate:"gte=0"`
	Notes      string        `json:"notes,omitempty" validate:"max=2000"`
}

// BookingPatch carries a partial update. Nil fields are left unchanged.
type BookingPatch struct {
	ResourceID *string        `json:"resource_id,omitempty" validate:"omitempty,min=1,max=64"`
	CrewIDs    *[]string      `json:"crew_ids,omitempty" validate:"omitempty,max=50,unique,dive,required,min=1,max=64"`
	Partner    *PartnerRef    `json:"partner,omitempty" validate:"omitempty"`
	Window     *TimeWindow    `json:"window,omitempty" validate:"omitempty"`
	Status     *BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	Guests     *int           `json:"guests,omitempty" validate:"omitempty,gte=0,lte=1000"`
	Price      *float64       `json:"price,omitempty" validate:"omitempty,gte=0"`
	Notes      *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// BookingFilter selects bookings for listing. Empty fields match everything.
// DateFrom and DateTo are inclusive.
type BookingFilter struct {
	ResourceID string
	CrewID     string
	DateFrom   string
	DateTo     string
	Status     BookingStatus
}

func (f BookingFilter) Matches(b *Booking) bool {
	if f.ResourceID != "" && b.Resource.ID != f.ResourceID {
		return false
	}
	if f.CrewID != "" && !b.HasCrewMember(f.CrewID) {
		return false
	}
	if f.DateFrom != "" && b.Window.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && b.Window.Date > f.DateTo {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

package testutil

import (
	"fmt"
	"tourdesk/pkg/model"

	"github.com/google/uuid"
)

// UniqueID returns prefix plus a short random suffix so runs against a
// shared server do not collide.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

func NewResource(kind model.ResourceKind, capacity int) model.Resource {
	return model.Resource{
		ID:       UniqueID("res"),
		Name:     "Integration " + string(kind),
		Kind:     kind,
		Capacity: capacity,
	}
}

func NewCrewMember(qualifications ...string) model.CrewMember {
	return model.CrewMember{
		ID:             UniqueID("crew"),
		Name:           "Integration Crew",
		Qualifications: qualifications,
	}
}

type DraftBuilder struct {
	draft model.BookingDraft
}

func NewDraftBuilder(resourceID, date string) *DraftBuilder {
	return &DraftBuilder{
		draft: model.BookingDraft{
			ResourceID: resourceID,
			Window:     model.TimeWindow{Date: date, Start: "10:00", End: "12:00"},
			Guests:     2,
			Price:      120,
		},
	}
}

func (b *DraftBuilder) WithCrew(ids ...string) *DraftBuilder {
	b.draft.CrewIDs = ids
	return b
}

func (b *DraftBuilder) WithWindow(start, end string) *DraftBuilder {
	b.draft.Window.Start = start
	b.draft.Window.End = end
	return b
}

func (b *DraftBuilder) WithGuests(guests int) *DraftBuilder {
	b.draft.Guests = guests
	return b
}

func (b *DraftBuilder) WithStatus(status model.BookingStatus) *DraftBuilder {
	b.draft.Status = status
	return b
}

func (b *DraftBuilder) Build() model.BookingDraft {
	return b.draft
}

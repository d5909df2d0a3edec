package model

import "time"

type CrewMember struct {
	ID             string    `json:"id" bson:"_id" validate:"required,min=1,max=64"`
	Name           string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Qualifications []string  `json:"qualifications" bson:"qualifications" validate:"omitempty,max=20,dive,required,max=50"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

func (c *CrewMember) Ref() CrewRef {
	return CrewRef{ID: c.ID, Name: c.Name}
}

// CrewDay lists the active bookings a crew member is assigned to on one date.
type CrewDay struct {
	ID         string    `json:"-" bson:"_id"`
	CrewID     string    `json:"crew_id" bson:"crew_id"`
	Date       string    `json:"date" bson:"date"`
	BookingIDs []string  `json:"booking_ids" bson:"booking_ids"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

func CrewDayID(crewID, date string) string {
	return crewID + "|" + date
}

func NewCrewDay(crewID, date string) *CrewDay {
	return &CrewDay{
		ID:         CrewDayID(crewID, date),
		CrewID:     crewID,
		Date:       date,
		BookingIDs: []string{},
	}
}

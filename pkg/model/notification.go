package model

import "time"

type BookingAction string

const (
	ActionCreated   BookingAction = "created"
	ActionUpdated   BookingAction = "updated"
	ActionCancelled BookingAction = "cancelled"
)

type Notification struct {
	ID               string        `json:"id" bson:"_id"`
	BookingID        string        `json:"booking_id" bson:"booking_id"`
	Action           BookingAction `json:"action" bson:"action"`
	Rescheduled      bool          `json:"rescheduled,omitempty" bson:"rescheduled,omitempty"`
	Message          string        `json:"message" bson:"message"`
	Recipients       []string      `json:"recipients" bson:"recipients"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	BookingSnapshot  Booking       `json:"booking" bson:"booking"`
	PreviousSnapshot *Booking      `json:"previous,omitempty" bson:"previous,omitempty"`
}

type UtilizationRecord struct {
	Date                string             `json:"date" bson:"_id"`
	ResourceHours       map[string]float64 `json:"resource_hours" bson:"resource_hours"`
	CrewHours           map[string]float64 `json:"crew_hours" bson:"crew_hours"`
	TotalActiveBookings int                `json:"total_active_bookings" bson:"total_active_bookings"`
	ComputedAt          time.Time          `json:"computed_at" bson:"computed_at"`
}

package model

type ConflictType string

const (
	ConflictResourceOverlap    ConflictType = "resource_overlap"
	ConflictCrewOverlap        ConflictType = "crew_overlap"
	ConflictMaintenanceOverlap ConflictType = "maintenance_overlap"
)

// Conflict describes one reason a candidate booking cannot be committed.
type Conflict struct {
	Type       ConflictType `json:"type"`
	Reason     string       `json:"reason"`
	BookingID  string       `json:"booking_id,omitempty"`
	ResourceID string       `json:"resource_id,omitempty"`
	CrewID     string       `json:"crew_id,omitempty"`
	Window     TimeWindow   `json:"window"`
}

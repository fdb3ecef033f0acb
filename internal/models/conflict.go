package models

// Dimensions along which double-booking is forbidden.
const (
	DimensionTeacher = "TEACHER"
	DimensionRoom    = "ROOM"
	DimensionClass   = "CLASS"
)

// Conflict reports an overlap between a candidate slot and a committed slot
// along one dimension. A single pair of slots may produce several entries.
type Conflict struct {
	WithSlotID string `json:"with_slot_id"`
	Dimension  string `json:"dimension"`
	DayOfWeek  string `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// ConflictError is returned when a proposed slot collides with existing
// commitments. It carries the full conflict list so the caller can resolve
// every collision in one round trip.
type ConflictError struct {
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

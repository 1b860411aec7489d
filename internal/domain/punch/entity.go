package punch

import (
	"encoding/json"
	"time"
)

// Direction is the inferred meaning of a punch.
type Direction string

const (
	DirectionIn    Direction = "IN"
	DirectionOut   Direction = "OUT"
	DirectionOther Direction = "OTHER"
)

// RawRow is a single entry of a device dump file, before normalization.
// Timestamp is kept raw because device classes disagree on the encoding:
// epoch seconds (possibly fractional) or a wall-clock string.
type RawRow struct {
	UserID    string          `json:"user_id"`
	Timestamp json.RawMessage `json:"timestamp"`
	PunchCode *int            `json:"punch_code"`
}

// Event is a normalized punch. Immutable once created; downstream stages
// attach derived data instead of mutating it.
type Event struct {
	UserID    string
	Timestamp time.Time
	PunchCode *int
	DeviceID  string
}

// ShiftDayBinding assigns an event to its logical shift day.
// OvernightOffsetMinutes is non-zero only for punches that fall before the
// overnight cutoff and therefore bind to the previous calendar day.
type ShiftDayBinding struct {
	ShiftDate              time.Time
	OvernightOffsetMinutes int
}

// ClassifiedEvent is an event with its shift-day binding and direction.
type ClassifiedEvent struct {
	Event
	ShiftDayBinding
	Direction Direction
}

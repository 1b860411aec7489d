package attendance

import (
	"time"
)

// Record is one employee's attendance for one shift day. Uniquely keyed by
// (EmployeeID, Date); reprocessing the same day supersedes the stored row.
type Record struct {
	EmployeeID       string
	Date             time.Time
	InTime           *time.Time
	OutTime          *time.Time
	WorkingHours     *float64
	LateEntryMinutes *float64
	EarlyExitMinutes *float64
	IsHoliday        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

package attendance

import (
	"context"
	"time"
)

// Repository defines data access for attendance records.
type Repository interface {
	// Upsert inserts the record or overwrites the mutable fields of the
	// existing row with the same (employee_id, attendance_date) key.
	// Applying the same record twice yields the same stored state.
	Upsert(ctx context.Context, record Record) error

	// GetByEmployeeAndDate returns nil when no record exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// ListByDateRange retrieves records with attendance_date in [start, end].
	ListByDateRange(ctx context.Context, start, end time.Time) ([]Record, error)
}

package employee

import (
	"context"
	"time"
)

// Directory resolves device-side user ids to employees and answers holiday
// calendar lookups. The backing store (HR database, ERP API) is external.
type Directory interface {
	// GetByDeviceUserID returns ErrEmployeeNotFound when no employee carries
	// the device user id, ErrEmployeeInactive when one does but is inactive.
	GetByDeviceUserID(ctx context.Context, deviceUserID string) (Employee, error)

	// IsHoliday reports whether date is a holiday on the employee's calendar.
	IsHoliday(ctx context.Context, employeeID string, date time.Time) (bool, error)
}

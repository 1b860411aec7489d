package employee

type Employee struct {
	ID           string
	FullName     string
	DeviceUserID string
	Status       string
	HolidayList  *string
}

// IsActive reports whether transactions may be created for the employee.
func (e Employee) IsActive() bool {
	return e.Status == "active"
}

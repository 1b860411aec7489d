package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/employee"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Directory {
	return &employeeRepository{db: db}
}

// GetByDeviceUserID implements employee.Directory.
func (e *employeeRepository) GetByDeviceUserID(ctx context.Context, deviceUserID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, full_name, attendance_device_id, status, holiday_list
		FROM employees
		WHERE attendance_device_id = $1
		LIMIT 1
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, deviceUserID).Scan(
		&emp.ID, &emp.FullName, &emp.DeviceUserID, &emp.Status, &emp.HolidayList,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by device user id: %w", err)
	}

	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}

	return emp, nil
}

// IsHoliday implements employee.Directory.
func (e *employeeRepository) IsHoliday(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM holidays h
			JOIN employees e ON e.holiday_list = h.holiday_list
			WHERE e.id = $1
			  AND h.holiday_date = $2
		)
	`

	var isHoliday bool
	if err := q.QueryRow(ctx, query, employeeID, date).Scan(&isHoliday); err != nil {
		return false, fmt.Errorf("failed to check holiday calendar: %w", err)
	}

	return isHoliday, nil
}

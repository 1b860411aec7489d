package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/attendance"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// Upsert implements attendance.Repository.
func (a *attendanceRepository) Upsert(ctx context.Context, record attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			employee_id, attendance_date, in_time, out_time, working_hours,
			late_entry_minutes, early_exit_minutes, is_holiday
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (employee_id, attendance_date) DO UPDATE SET
			in_time            = EXCLUDED.in_time,
			out_time           = EXCLUDED.out_time,
			working_hours      = EXCLUDED.working_hours,
			late_entry_minutes = EXCLUDED.late_entry_minutes,
			early_exit_minutes = EXCLUDED.early_exit_minutes,
			is_holiday         = EXCLUDED.is_holiday,
			updated_at         = NOW()
	`

	_, err := q.Exec(ctx, query,
		record.EmployeeID,
		record.Date,
		record.InTime,
		record.OutTime,
		record.WorkingHours,
		record.LateEntryMinutes,
		record.EarlyExitMinutes,
		record.IsHoliday,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance record: %w", err)
	}

	return nil
}

// GetByEmployeeAndDate implements attendance.Repository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT employee_id, attendance_date, in_time, out_time, working_hours,
			   late_entry_minutes, early_exit_minutes, is_holiday,
			   created_at, updated_at
		FROM attendance_records
		WHERE employee_id = $1
		  AND attendance_date = $2
		LIMIT 1
	`

	var rec attendance.Record
	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&rec.EmployeeID, &rec.Date, &rec.InTime, &rec.OutTime, &rec.WorkingHours,
		&rec.LateEntryMinutes, &rec.EarlyExitMinutes, &rec.IsHoliday,
		&rec.CreatedAt, &rec.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return &rec, nil
}

// ListByDateRange implements attendance.Repository.
func (a *attendanceRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT employee_id, attendance_date, in_time, out_time, working_hours,
			   late_entry_minutes, early_exit_minutes, is_holiday,
			   created_at, updated_at
		FROM attendance_records
		WHERE attendance_date >= $1
		  AND attendance_date <= $2
		ORDER BY employee_id ASC, attendance_date ASC
	`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		err := rows.Scan(
			&rec.EmployeeID, &rec.Date, &rec.InTime, &rec.OutTime, &rec.WorkingHours,
			&rec.LateEntryMinutes, &rec.EarlyExitMinutes, &rec.IsHoliday,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

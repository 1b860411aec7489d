package attendance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/attendance"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/employee"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

// LookupFailure is a punch whose device user could not be resolved to an
// active employee. The rest of the batch is unaffected.
type LookupFailure struct {
	DeviceUserID string
	Timestamp    time.Time
	Err          error
}

// Aggregator folds classified punches into one attendance record per
// employee per shift day, and fills absence records for employees that
// punched somewhere in the window but not on every day of it.
type Aggregator struct {
	directory  employee.Directory
	shiftStart time.Time
	shiftEnd   time.Time
}

func NewAggregator(directory employee.Directory, shiftStart, shiftEnd time.Time) *Aggregator {
	return &Aggregator{
		directory:  directory,
		shiftStart: shiftStart,
		shiftEnd:   shiftEnd,
	}
}

// shiftStartAt pins the configured shift start onto a shift date.
func (a *Aggregator) shiftStartAt(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		a.shiftStart.Hour(), a.shiftStart.Minute(), 0, 0, date.Location())
}

func (a *Aggregator) shiftEndAt(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		a.shiftEnd.Hour(), a.shiftEnd.Minute(), 0, 0, date.Location())
}

// Aggregate builds attendance records for all events plus absence records
// covering [winStart, winEnd]. Events must already carry their shift-day
// binding and direction.
func (a *Aggregator) Aggregate(ctx context.Context, events []punch.ClassifiedEvent, winStart, winEnd time.Time) ([]attendance.Record, []LookupFailure, error) {
	var failures []LookupFailure

	// Resolve each device user once.
	employees := make(map[string]employee.Employee)
	unresolved := make(map[string]error)
	for _, ev := range events {
		if _, seen := employees[ev.UserID]; seen {
			continue
		}
		if _, seen := unresolved[ev.UserID]; seen {
			failures = append(failures, LookupFailure{
				DeviceUserID: ev.UserID,
				Timestamp:    ev.Timestamp,
				Err:          unresolved[ev.UserID],
			})
			continue
		}

		emp, err := a.directory.GetByDeviceUserID(ctx, ev.UserID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) || errors.Is(err, employee.ErrEmployeeInactive) {
				unresolved[ev.UserID] = err
				failures = append(failures, LookupFailure{
					DeviceUserID: ev.UserID,
					Timestamp:    ev.Timestamp,
					Err:          err,
				})
				continue
			}
			return nil, nil, err
		}
		employees[ev.UserID] = emp
	}

	// Group resolved events by employee and shift day.
	type dayKey struct {
		employeeID string
		shiftDate  int64
	}
	days := make(map[dayKey][]punch.ClassifiedEvent)
	presence := make(map[string]map[int64]struct{})
	for _, ev := range events {
		emp, ok := employees[ev.UserID]
		if !ok {
			continue
		}
		key := dayKey{employeeID: emp.ID, shiftDate: ev.ShiftDate.Unix()}
		days[key] = append(days[key], ev)
		if presence[emp.ID] == nil {
			presence[emp.ID] = make(map[int64]struct{})
		}
		presence[emp.ID][ev.ShiftDate.Unix()] = struct{}{}
	}

	var records []attendance.Record
	for key, dayEvents := range days {
		sort.Slice(dayEvents, func(i, j int) bool {
			return dayEvents[i].Timestamp.Before(dayEvents[j].Timestamp)
		})
		shiftDate := time.Unix(key.shiftDate, 0).UTC()
		records = append(records, a.walkSessions(key.employeeID, shiftDate, dayEvents)...)
	}

	absences, err := a.fillAbsences(ctx, employees, presence, winStart, winEnd)
	if err != nil {
		return nil, nil, err
	}
	records = append(records, absences...)

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].EmployeeID < records[j].EmployeeID
	})

	return records, failures, nil
}

// walkSessions pairs IN and OUT punches of one shift day into records.
// Unpaired punches still produce partial records so no punch is lost.
func (a *Aggregator) walkSessions(employeeID string, shiftDate time.Time, events []punch.ClassifiedEvent) []attendance.Record {
	shiftStart := a.shiftStartAt(shiftDate)
	shiftEnd := a.shiftEndAt(shiftDate)

	var records []attendance.Record
	var open *punch.ClassifiedEvent
	var openLate float64

	for i := range events {
		ev := events[i]
		switch ev.Direction {
		case punch.DirectionIn:
			if open != nil {
				// A second IN without an OUT between: keep the earlier one.
				continue
			}
			open = &events[i]
			openLate = lateMinutes(ev.Timestamp, shiftStart)

		case punch.DirectionOut:
			if open != nil && ev.Timestamp.After(open.Timestamp) {
				records = append(records, a.fullRecord(employeeID, shiftDate, *open, ev, openLate, shiftEnd))
				open = nil
				continue
			}
			records = append(records, a.outOnlyRecord(employeeID, shiftDate, ev, shiftEnd))

		default:
			slog.Debug("Skipping unclassified punch",
				"employee_id", employeeID,
				"timestamp", ev.Timestamp,
			)
		}
	}

	if open != nil {
		records = append(records, a.inOnlyRecord(employeeID, shiftDate, *open, openLate))
	}

	return records
}

func (a *Aggregator) fullRecord(employeeID string, shiftDate time.Time, in, out punch.ClassifiedEvent, late float64, shiftEnd time.Time) attendance.Record {
	working := round2(out.Timestamp.Sub(in.Timestamp).Hours())
	early := earlyMinutes(out.Timestamp, shiftEnd)
	inTime := in.Timestamp
	outTime := out.Timestamp
	return attendance.Record{
		EmployeeID:       employeeID,
		Date:             shiftDate,
		InTime:           &inTime,
		OutTime:          &outTime,
		WorkingHours:     &working,
		LateEntryMinutes: &late,
		EarlyExitMinutes: &early,
	}
}

func (a *Aggregator) inOnlyRecord(employeeID string, shiftDate time.Time, in punch.ClassifiedEvent, late float64) attendance.Record {
	inTime := in.Timestamp
	return attendance.Record{
		EmployeeID:       employeeID,
		Date:             shiftDate,
		InTime:           &inTime,
		LateEntryMinutes: &late,
	}
}

func (a *Aggregator) outOnlyRecord(employeeID string, shiftDate time.Time, out punch.ClassifiedEvent, shiftEnd time.Time) attendance.Record {
	outTime := out.Timestamp
	early := earlyMinutes(out.Timestamp, shiftEnd)
	return attendance.Record{
		EmployeeID:       employeeID,
		Date:             shiftDate,
		OutTime:          &outTime,
		EarlyExitMinutes: &early,
	}
}

// fillAbsences emits an empty record for every day of the window an
// employee has no punches on. Holiday lookup failures degrade to a
// non-holiday absence rather than failing the batch.
func (a *Aggregator) fillAbsences(ctx context.Context, employees map[string]employee.Employee, presence map[string]map[int64]struct{}, winStart, winEnd time.Time) ([]attendance.Record, error) {
	start := time.Date(winStart.Year(), winStart.Month(), winStart.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(winEnd.Year(), winEnd.Month(), winEnd.Day(), 0, 0, 0, 0, time.UTC)

	var records []attendance.Record
	for _, emp := range employees {
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if _, present := presence[emp.ID][day.Unix()]; present {
				continue
			}

			holiday, err := a.directory.IsHoliday(ctx, emp.ID, day)
			if err != nil {
				slog.Warn("Holiday lookup failed, assuming working day",
					"employee_id", emp.ID,
					"date", day.Format("2006-01-02"),
					"error", err,
				)
				holiday = false
			}

			records = append(records, attendance.Record{
				EmployeeID: emp.ID,
				Date:       day,
				IsHoliday:  holiday,
			})
		}
	}
	return records, nil
}

// lateMinutes is how many minutes after shiftStart the punch landed,
// clamped at zero, to one decimal.
func lateMinutes(in, shiftStart time.Time) float64 {
	diff := in.Sub(shiftStart).Minutes()
	if diff < 0 {
		return 0
	}
	return round1(diff)
}

func earlyMinutes(out, shiftEnd time.Time) float64 {
	diff := shiftEnd.Sub(out).Minutes()
	if diff < 0 {
		return 0
	}
	return round1(diff)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

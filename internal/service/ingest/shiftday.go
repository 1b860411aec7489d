package ingest

import (
	"time"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

// BindShiftDay assigns an event to its logical shift day. Punches with a
// wall-clock hour strictly below cutoffHour belong to the previous calendar
// day and record how far past midnight they landed.
func BindShiftDay(ev punch.Event, cutoffHour int) punch.ShiftDayBinding {
	ts := ev.Timestamp
	date := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())

	if ts.Hour() < cutoffHour {
		return punch.ShiftDayBinding{
			ShiftDate:              date.AddDate(0, 0, -1),
			OvernightOffsetMinutes: ts.Hour()*60 + ts.Minute(),
		}
	}
	return punch.ShiftDayBinding{ShiftDate: date}
}

// BindAll binds every event, leaving Direction at its default until a
// classifier runs.
func BindAll(events []punch.Event, cutoffHour int) []punch.ClassifiedEvent {
	bound := make([]punch.ClassifiedEvent, 0, len(events))
	for _, ev := range events {
		bound = append(bound, punch.ClassifiedEvent{
			Event:           ev,
			ShiftDayBinding: BindShiftDay(ev, cutoffHour),
			Direction:       punch.DirectionOther,
		})
	}
	return bound
}

package ingest

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

// timestampLayouts are tried in order for string-encoded timestamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Normalizer turns raw dump rows into punch events. Epoch-encoded
// timestamps carry the device clock skew and get the configured offset
// added; wall-clock strings are stored as-is.
type Normalizer struct {
	skew time.Duration
}

func NewNormalizer(skew time.Duration) *Normalizer {
	return &Normalizer{skew: skew}
}

// Normalize converts rows from one device into events sorted by timestamp.
// Rows with a missing user id or an unreadable timestamp are dropped and
// counted, never fatal.
func (n *Normalizer) Normalize(deviceID string, rows []punch.RawRow) (events []punch.Event, dropped int) {
	events = make([]punch.Event, 0, len(rows))

	for _, row := range rows {
		if row.UserID == "" {
			dropped++
			slog.Warn("Dropping punch row without user id",
				"device_id", deviceID,
				"error", punch.ErrMissingUserID,
			)
			continue
		}

		ts, err := n.parseTimestamp(row.Timestamp)
		if err != nil {
			dropped++
			slog.Warn("Dropping punch row with unreadable timestamp",
				"device_id", deviceID,
				"user_id", row.UserID,
				"error", err,
			)
			continue
		}

		events = append(events, punch.Event{
			UserID:    row.UserID,
			Timestamp: ts,
			PunchCode: row.PunchCode,
			DeviceID:  deviceID,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, dropped
}

func (n *Normalizer) parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, punch.ErrBadTimestamp
	}

	var epoch float64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC().Add(n.skew), nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return time.Time{}, punch.ErrBadTimestamp
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, str); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, punch.ErrBadTimestamp
}

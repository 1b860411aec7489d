package device

import (
	"context"
	"time"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

// SyncStatusRepository persists per-device sync bookkeeping.
type SyncStatusRepository interface {
	// Get returns a zero-value status (both timestamps nil) for devices
	// that have never reported.
	Get(ctx context.Context, deviceID string) (SyncStatus, error)

	SetPull(ctx context.Context, deviceID string, t time.Time) error

	// MarkPush records that a fetch cycle's data is in flight.
	MarkPush(ctx context.Context, deviceID string, t time.Time) error

	// ResetPush clears the delivery marker once data is confirmed delivered.
	ResetPush(ctx context.Context, deviceID string) error

	List(ctx context.Context) ([]SyncStatus, error)
}

// WatermarkRepository persists per-shift sync points.
type WatermarkRepository interface {
	// Get returns a watermark with nil SyncTimestamp for unknown shifts.
	Get(ctx context.Context, shiftName string) (Watermark, error)

	// Advance stores t as the shift's sync point. Returns
	// ErrWatermarkRegressed when t is not strictly newer than the stored
	// value; the stored value is left untouched in that case.
	Advance(ctx context.Context, shiftName string, t time.Time) error

	List(ctx context.Context) ([]Watermark, error)
}

// Gateway fetches raw punch rows from a device. The vendor SDK transport is
// out of scope; the in-repo implementation reads uploaded dump files.
type Gateway interface {
	Fetch(ctx context.Context, d Device) ([]punch.RawRow, error)
}

// ShiftSyncPusher publishes a shift's new sync point downstream.
// A non-2xx response is a retryable error.
type ShiftSyncPusher interface {
	PushShiftSync(ctx context.Context, shiftName string, syncTimestamp time.Time) error
}

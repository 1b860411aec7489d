package device

import "time"

// Device identifies one biometric time-clock.
type Device struct {
	ID string
	IP string
}

// SyncStatus is the per-device sync bookkeeping, persisted across runs.
// LastPushTimestamp is a delivery marker: non-null while a fetch cycle's
// data has not yet been confirmed delivered downstream, null once consumed.
type SyncStatus struct {
	DeviceID          string
	LastPullTimestamp *time.Time
	LastPushTimestamp *time.Time
}

// Watermark is the per-shift sync point. SyncTimestamp is monotonically
// non-decreasing; it is never set to a value earlier than its current one.
type Watermark struct {
	ShiftName     string
	SyncTimestamp *time.Time
}

// ShiftDeviceMap is static configuration mapping a shift to the devices
// that feed it. A device may feed more than one shift.
type ShiftDeviceMap map[string][]string

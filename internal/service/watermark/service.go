package watermark

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
)

// Service advances per-shift sync watermarks once every device feeding the
// shift has delivered its data, and publishes each advancement downstream.
type Service struct {
	mapping       device.ShiftDeviceMap
	statusRepo    device.SyncStatusRepository
	watermarkRepo device.WatermarkRepository
	pusher        device.ShiftSyncPusher
}

func NewService(
	mapping device.ShiftDeviceMap,
	statusRepo device.SyncStatusRepository,
	watermarkRepo device.WatermarkRepository,
	pusher device.ShiftSyncPusher,
) *Service {
	return &Service{
		mapping:       mapping,
		statusRepo:    statusRepo,
		watermarkRepo: watermarkRepo,
		pusher:        pusher,
	}
}

// AdvanceAll tries to advance the watermark of every configured shift. A
// failing shift is logged and skipped; the others still advance.
func (s *Service) AdvanceAll(ctx context.Context) error {
	shifts := make([]string, 0, len(s.mapping))
	for shift := range s.mapping {
		shifts = append(shifts, shift)
	}
	sort.Strings(shifts)

	var lastErr error
	for _, shift := range shifts {
		if err := s.advanceShift(ctx, shift); err != nil {
			slog.Error("Failed to advance shift watermark", "shift", shift, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

// advanceShift pushes the minimum pull timestamp across the shift's devices
// as the new sync point, but only when every device is quiescent: pulled at
// least once and with no delivery in flight.
func (s *Service) advanceShift(ctx context.Context, shiftName string) error {
	deviceIDs := s.mapping[shiftName]

	var candidate *time.Time
	for _, id := range deviceIDs {
		status, err := s.statusRepo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load sync status for device %s: %w", id, err)
		}

		if status.LastPushTimestamp != nil {
			slog.Debug("Shift not ready, device delivery in flight",
				"shift", shiftName, "device_id", id)
			return nil
		}
		if status.LastPullTimestamp == nil {
			slog.Debug("Shift not ready, device never pulled",
				"shift", shiftName, "device_id", id)
			return nil
		}

		if candidate == nil || status.LastPullTimestamp.Before(*candidate) {
			candidate = status.LastPullTimestamp
		}
	}
	if candidate == nil {
		return nil
	}

	current, err := s.watermarkRepo.Get(ctx, shiftName)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}
	if current.SyncTimestamp != nil && !candidate.After(*current.SyncTimestamp) {
		slog.Debug("Shift watermark already current",
			"shift", shiftName,
			"watermark", current.SyncTimestamp,
		)
		return nil
	}

	// Push first. If the downstream rejects the new sync point the local
	// state stays untouched and the next cycle retries.
	if err := s.pusher.PushShiftSync(ctx, shiftName, *candidate); err != nil {
		return fmt.Errorf("push shift sync: %w", err)
	}

	if err := s.watermarkRepo.Advance(ctx, shiftName, *candidate); err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	for _, id := range deviceIDs {
		if err := s.statusRepo.ResetPush(ctx, id); err != nil {
			return fmt.Errorf("reset push marker for device %s: %w", id, err)
		}
	}

	slog.Info("Shift watermark advanced",
		"shift", shiftName,
		"sync_timestamp", candidate.Format(time.RFC3339),
	)
	return nil
}

// List returns the stored watermark of every configured shift.
func (s *Service) List(ctx context.Context) ([]device.Watermark, error) {
	return s.watermarkRepo.List(ctx)
}

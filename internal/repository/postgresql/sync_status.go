package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/database"
)

type syncStatusRepository struct {
	db *database.DB
}

func NewSyncStatusRepository(db *database.DB) device.SyncStatusRepository {
	return &syncStatusRepository{db: db}
}

// Get implements device.SyncStatusRepository.
func (s *syncStatusRepository) Get(ctx context.Context, deviceID string) (device.SyncStatus, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT device_id, last_pull_timestamp, last_push_timestamp
		FROM device_sync_status
		WHERE device_id = $1
	`

	var status device.SyncStatus
	err := q.QueryRow(ctx, query, deviceID).Scan(
		&status.DeviceID, &status.LastPullTimestamp, &status.LastPushTimestamp,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A device that never reported has an empty status, not an error.
			return device.SyncStatus{DeviceID: deviceID}, nil
		}
		return device.SyncStatus{}, fmt.Errorf("failed to get sync status: %w", err)
	}

	return status, nil
}

// SetPull implements device.SyncStatusRepository.
func (s *syncStatusRepository) SetPull(ctx context.Context, deviceID string, t time.Time) error {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO device_sync_status (device_id, last_pull_timestamp)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO UPDATE SET
			last_pull_timestamp = EXCLUDED.last_pull_timestamp,
			updated_at          = NOW()
	`

	if _, err := q.Exec(ctx, query, deviceID, t); err != nil {
		return fmt.Errorf("failed to set pull timestamp: %w", err)
	}
	return nil
}

// MarkPush implements device.SyncStatusRepository.
func (s *syncStatusRepository) MarkPush(ctx context.Context, deviceID string, t time.Time) error {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO device_sync_status (device_id, last_push_timestamp)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO UPDATE SET
			last_push_timestamp = EXCLUDED.last_push_timestamp,
			updated_at          = NOW()
	`

	if _, err := q.Exec(ctx, query, deviceID, t); err != nil {
		return fmt.Errorf("failed to mark push timestamp: %w", err)
	}
	return nil
}

// ResetPush implements device.SyncStatusRepository.
func (s *syncStatusRepository) ResetPush(ctx context.Context, deviceID string) error {
	q := GetQuerier(ctx, s.db)

	query := `
		UPDATE device_sync_status
		SET last_push_timestamp = NULL, updated_at = NOW()
		WHERE device_id = $1
	`

	if _, err := q.Exec(ctx, query, deviceID); err != nil {
		return fmt.Errorf("failed to reset push timestamp: %w", err)
	}
	return nil
}

// List implements device.SyncStatusRepository.
func (s *syncStatusRepository) List(ctx context.Context) ([]device.SyncStatus, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT device_id, last_pull_timestamp, last_push_timestamp
		FROM device_sync_status
		ORDER BY device_id ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync statuses: %w", err)
	}
	defer rows.Close()

	var statuses []device.SyncStatus
	for rows.Next() {
		var status device.SyncStatus
		if err := rows.Scan(&status.DeviceID, &status.LastPullTimestamp, &status.LastPushTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan sync status: %w", err)
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

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

type watermarkRepository struct {
	db *database.DB
}

func NewWatermarkRepository(db *database.DB) device.WatermarkRepository {
	return &watermarkRepository{db: db}
}

// Get implements device.WatermarkRepository.
func (w *watermarkRepository) Get(ctx context.Context, shiftName string) (device.Watermark, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT shift_name, sync_timestamp
		FROM shift_watermarks
		WHERE shift_name = $1
	`

	var wm device.Watermark
	err := q.QueryRow(ctx, query, shiftName).Scan(&wm.ShiftName, &wm.SyncTimestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Watermark{ShiftName: shiftName}, nil
		}
		return device.Watermark{}, fmt.Errorf("failed to get watermark: %w", err)
	}

	return wm, nil
}

// Advance implements device.WatermarkRepository. The WHERE guard on the
// conflict update enforces monotonicity even under concurrent advancers.
func (w *watermarkRepository) Advance(ctx context.Context, shiftName string, t time.Time) error {
	q := GetQuerier(ctx, w.db)

	query := `
		INSERT INTO shift_watermarks (shift_name, sync_timestamp)
		VALUES ($1, $2)
		ON CONFLICT (shift_name) DO UPDATE SET
			sync_timestamp = EXCLUDED.sync_timestamp,
			updated_at     = NOW()
		WHERE shift_watermarks.sync_timestamp IS NULL
		   OR shift_watermarks.sync_timestamp < EXCLUDED.sync_timestamp
	`

	tag, err := q.Exec(ctx, query, shiftName, t)
	if err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return device.ErrWatermarkRegressed
	}

	return nil
}

// List implements device.WatermarkRepository.
func (w *watermarkRepository) List(ctx context.Context) ([]device.Watermark, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT shift_name, sync_timestamp
		FROM shift_watermarks
		ORDER BY shift_name ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query watermarks: %w", err)
	}
	defer rows.Close()

	var watermarks []device.Watermark
	for rows.Next() {
		var wm device.Watermark
		if err := rows.Scan(&wm.ShiftName, &wm.SyncTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan watermark: %w", err)
		}
		watermarks = append(watermarks, wm)
	}

	return watermarks, nil
}

package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/attendance"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/database"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/sse"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/repository/postgresql"
)

// Failure is one record that could not be persisted.
type Failure struct {
	EmployeeID string
	Date       time.Time
	Err        error
}

// BatchResult summarizes a batch write.
type BatchResult struct {
	Total     int
	Processed int
	Failed    int
	Failures  []Failure
}

// Writer persists attendance records in chunked transactions. Each chunk
// commits independently, so a cancellation between chunks keeps the chunks
// already written. Within a chunk, each record runs under a savepoint so
// one bad record never poisons its neighbors.
type Writer struct {
	db        *database.DB
	repo      attendance.Repository
	hub       *sse.Hub
	chunkSize int
}

func NewWriter(db *database.DB, repo attendance.Repository, hub *sse.Hub, chunkSize int) *Writer {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Writer{
		db:        db,
		repo:      repo,
		hub:       hub,
		chunkSize: chunkSize,
	}
}

// WriteBatch upserts records in order. It returns the partial result along
// with ctx.Err() when cancelled between chunks.
func (w *Writer) WriteBatch(ctx context.Context, runID string, records []attendance.Record) (BatchResult, error) {
	result := BatchResult{Total: len(records)}

	for offset := 0; offset < len(records); offset += w.chunkSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("Batch write cancelled",
				"run_id", runID,
				"processed", result.Processed,
				"total", result.Total,
			)
			return result, err
		}

		end := offset + w.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[offset:end]

		err := postgresql.WithTransaction(ctx, w.db, func(tx pgx.Tx) error {
			for i := range chunk {
				if err := w.upsertOne(ctx, tx, chunk[i]); err != nil {
					result.Failed++
					result.Failures = append(result.Failures, Failure{
						EmployeeID: chunk[i].EmployeeID,
						Date:       chunk[i].Date,
						Err:        err,
					})
					slog.Error("Failed to persist attendance record",
						"run_id", runID,
						"employee_id", chunk[i].EmployeeID,
						"date", chunk[i].Date.Format("2006-01-02"),
						"error", err,
					)
					continue
				}
				result.Processed++
			}
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("commit attendance chunk: %w", err)
		}

		w.publishProgress(runID, result)
	}

	slog.Info("Batch write finished",
		"run_id", runID,
		"total", result.Total,
		"processed", result.Processed,
		"failed", result.Failed,
	)
	w.hub.Publish(runID, sse.Event{
		RunID: runID,
		Event: "write_completed",
		Data: map[string]int{
			"total":     result.Total,
			"processed": result.Processed,
			"failed":    result.Failed,
		},
	})

	return result, nil
}

// upsertOne writes a single record under a savepoint so its failure rolls
// back only itself.
func (w *Writer) upsertOne(ctx context.Context, tx pgx.Tx, record attendance.Record) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}

	if err := w.repo.Upsert(postgresql.ContextWithTx(ctx, sp), record); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback savepoint: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return sp.Commit(ctx)
}

func (w *Writer) publishProgress(runID string, result BatchResult) {
	slog.Info("Attendance chunk committed",
		"run_id", runID,
		"processed", result.Processed,
		"failed", result.Failed,
		"total", result.Total,
	)
	w.hub.Publish(runID, sse.Event{
		RunID: runID,
		Event: "write_progress",
		Data: map[string]int{
			"total":     result.Total,
			"processed": result.Processed,
			"failed":    result.Failed,
		},
	})
}

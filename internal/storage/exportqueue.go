package storage

import (
	"context"
	"fmt"
	"time"

	applog "cofre/internal/log"
)

// ExportItem is one row of the export queue.
type ExportItem struct {
	ID         int64
	RecordType string
	RecordID   string
	Operation  string
	Status     string
	Attempts   int64
	LastError  string
}

// EnqueueExport adds a record to the export queue.
func (r *SQLiteRepository) EnqueueExport(ctx context.Context, recordType, recordID, operation string) error {
	now := nowText()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_queue (record_type, record_id, operation, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		recordType, recordID, operation, now, now)
	if err != nil {
		return fmt.Errorf("enqueue export: %w", err)
	}

	logger.DebugContext(ctx, "Export queued",
		applog.FieldRecordType, recordType,
		applog.FieldRecordID, recordID,
		applog.FieldOperation, operation)

	return nil
}

// DequeueExportBatch returns up to limit pending items, oldest first.
func (r *SQLiteRepository) DequeueExportBatch(ctx context.Context, limit int64) ([]ExportItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_type, record_id, operation, status, attempts, last_error
		FROM export_queue
		WHERE status = 'pending'
		ORDER BY id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("dequeue export batch: %w", err)
	}
	defer rows.Close()

	var items []ExportItem
	for rows.Next() {
		var it ExportItem
		if err := rows.Scan(&it.ID, &it.RecordType, &it.RecordID, &it.Operation, &it.Status, &it.Attempts, &it.LastError); err != nil {
			return nil, fmt.Errorf("scan export item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkExportProcessing flags an item as being worked on.
func (r *SQLiteRepository) MarkExportProcessing(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_queue SET status = 'processing', updated_at = ? WHERE id = ?`,
		nowText(), id)
	if err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}
	return nil
}

// MarkExportComplete flags an item as done.
func (r *SQLiteRepository) MarkExportComplete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_queue SET status = 'completed', last_error = '', updated_at = ? WHERE id = ?`,
		nowText(), id)
	if err != nil {
		return fmt.Errorf("mark export complete: %w", err)
	}
	return nil
}

// IncrementExportAttempt records a failed attempt and re-queues the item.
func (r *SQLiteRepository) IncrementExportAttempt(ctx context.Context, id int64, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_queue
		SET status = 'pending', attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?`,
		lastError, nowText(), id)
	if err != nil {
		return fmt.Errorf("increment export attempt: %w", err)
	}
	return nil
}

// MarkExportFailed flags an item as permanently failed.
func (r *SQLiteRepository) MarkExportFailed(ctx context.Context, id int64, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_queue
		SET status = 'failed', attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?`,
		lastError, nowText(), id)
	if err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}

	logger.WarnContext(ctx, "Export item failed permanently", "id", id, applog.FieldError, lastError)
	return nil
}

// ResetStaleProcessing re-queues items left in processing state, for
// example after a crash mid-batch.
func (r *SQLiteRepository) ResetStaleProcessing(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE export_queue SET status = 'pending', updated_at = ? WHERE status = 'processing'`,
		nowText())
	if err != nil {
		return fmt.Errorf("reset stale processing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logger.InfoContext(ctx, "Reset stale export items", "count", n)
	}
	return nil
}

// RetryFailedExports re-queues all permanently failed items.
func (r *SQLiteRepository) RetryFailedExports(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_queue SET status = 'pending', attempts = 0, updated_at = ? WHERE status = 'failed'`,
		nowText())
	if err != nil {
		return fmt.Errorf("retry failed exports: %w", err)
	}
	return nil
}

// CleanupCompletedExports removes completed items older than the cutoff.
func (r *SQLiteRepository) CleanupCompletedExports(ctx context.Context, cutoff time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM export_queue WHERE status = 'completed' AND updated_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cleanup completed exports: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logger.DebugContext(ctx, "Cleaned up completed exports", "count", n)
	}
	return nil
}

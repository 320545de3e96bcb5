package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"cofre/internal/core"
	applog "cofre/internal/log"
	"cofre/internal/storage"
)

var logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentExport)

// Queue is the export-queue surface the processor drains.
type Queue interface {
	DequeueExportBatch(ctx context.Context, limit int64) ([]storage.ExportItem, error)
	MarkExportProcessing(ctx context.Context, id int64) error
	MarkExportComplete(ctx context.Context, id int64) error
	IncrementExportAttempt(ctx context.Context, id int64, lastError string) error
	MarkExportFailed(ctx context.Context, id int64, lastError string) error
	ResetStaleProcessing(ctx context.Context) error
	RetryFailedExports(ctx context.Context) error
	CleanupCompletedExports(ctx context.Context, cutoff time.Time) error
	GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
}

// Writer receives exported rows.
type Writer interface {
	Append(tx core.Transaction) error
	Delete(id string) error
}

type ProcessorConfig struct {
	// PollInterval is how often to check for pending items
	PollInterval time.Duration

	// BatchSize is the max number of items per poll cycle
	BatchSize int

	// MaxRetries is the retry budget before an item is marked failed
	MaxRetries int

	// CleanupInterval is how often completed items are purged
	CleanupInterval time.Duration

	// CleanupAge is how old a completed item must be before purging
	CleanupAge time.Duration

	// RetryFailedOnStart re-queues permanently failed items once at
	// startup, for a fresh run after the failure cause is fixed
	RetryFailedOnStart bool
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:    10 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
		CleanupInterval: 1 * time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// Processor drains the SQLite export queue into the CSV statement.
type Processor struct {
	queue  Queue
	writer Writer
	config ProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewProcessor(queue Queue, writer Writer, config ProcessorConfig) *Processor {
	return &Processor{
		queue:  queue,
		writer: writer,
		config: config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	// Re-queue items left in processing state by a previous crash
	if err := p.queue.ResetStaleProcessing(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to reset stale export items", applog.FieldError, err)
	}

	if p.config.RetryFailedOnStart {
		if err := p.queue.RetryFailedExports(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to re-queue failed export items", applog.FieldError, err)
		}
	}

	go p.runLoop(ctx)

	logger.InfoContext(ctx, "Export processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		logger.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		logger.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(p.config.CleanupInterval)
	defer cleanupTicker.Stop()

	// Process immediately on startup
	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.processBatch(ctx)
		case <-cleanupTicker.C:
			p.cleanupCompleted(ctx)
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) {
	items, err := p.queue.DequeueExportBatch(ctx, int64(p.config.BatchSize))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to dequeue export batch", applog.FieldError, err)
		return
	}

	if len(items) == 0 {
		return
	}

	logger.DebugContext(ctx, "Processing export batch", "count", len(items))

	for _, item := range items {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := p.queue.MarkExportProcessing(ctx, item.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to mark item as processing",
				"id", item.ID, applog.FieldError, err)
			continue
		}

		if err := p.processItem(ctx, item); err != nil {
			p.handleFailure(ctx, item, err)
		} else {
			p.handleSuccess(ctx, item)
		}
	}
}

func (p *Processor) processItem(ctx context.Context, item storage.ExportItem) error {
	if item.RecordType != "transaction" {
		// Only ledger rows land in the statement; other record types are
		// announced over AMQP and need no file output.
		logger.DebugContext(ctx, "Skipping non-transaction export item",
			"id", item.ID, "record_type", item.RecordType)
		return nil
	}

	switch item.Operation {
	case "append":
		return p.appendTransaction(ctx, item)
	case "delete":
		if err := p.writer.Delete(item.RecordID); err != nil {
			return fmt.Errorf("delete statement row: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown operation: %s", item.Operation)
	}
}

func (p *Processor) appendTransaction(ctx context.Context, item storage.ExportItem) error {
	id, err := uuid.Parse(item.RecordID)
	if err != nil {
		return fmt.Errorf("parse record id %q: %w", item.RecordID, err)
	}

	tx, err := p.queue.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the export ran; nothing left to write
		logger.WarnContext(ctx, "Transaction gone before export", "id", item.RecordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", item.RecordID, err)
	}

	if err := p.writer.Append(tx); err != nil {
		return fmt.Errorf("append statement row: %w", err)
	}

	logger.InfoContext(ctx, "Exported transaction to statement", "id", item.RecordID)
	return nil
}

func (p *Processor) handleSuccess(ctx context.Context, item storage.ExportItem) {
	if err := p.queue.MarkExportComplete(ctx, item.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to mark export complete",
			"id", item.ID, applog.FieldError, err)
	}
}

func (p *Processor) handleFailure(ctx context.Context, item storage.ExportItem, processErr error) {
	logger.WarnContext(ctx, "Export processing failed",
		"id", item.ID,
		applog.FieldOperation, item.Operation,
		"attempt", item.Attempts+1,
		applog.FieldError, processErr)

	if item.Attempts+1 >= int64(p.config.MaxRetries) {
		if err := p.queue.MarkExportFailed(ctx, item.ID, processErr.Error()); err != nil {
			logger.ErrorContext(ctx, "Failed to mark export as failed",
				"id", item.ID, applog.FieldError, err)
		}
		return
	}

	if err := p.queue.IncrementExportAttempt(ctx, item.ID, processErr.Error()); err != nil {
		logger.ErrorContext(ctx, "Failed to increment export attempt",
			"id", item.ID, applog.FieldError, err)
	}
}

func (p *Processor) cleanupCompleted(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupAge)
	if err := p.queue.CleanupCompletedExports(ctx, cutoff); err != nil {
		logger.ErrorContext(ctx, "Failed to cleanup completed exports", applog.FieldError, err)
	}
}

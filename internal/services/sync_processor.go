package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/entries"
	"ledger/internal/storage"
)

// PendingSource is the slice of the SQLite repository the processor needs.
type PendingSource interface {
	GetPendingSyncEntries(ctx context.Context, limit int) ([]storage.PendingSyncEntry, error)
	Get(ctx context.Context, id string) (core.Entry, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending entries (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of entries mirrored per poll (default: 10)
	BatchSize int

	// MaxRetries is the number of failed attempts before an entry is
	// marked with a sync error (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
		MaxRetries:   3,
	}
}

// SyncProcessor mirrors entries still pending in SQLite. It covers
// deployments without a broker and messages lost while the broker was down.
type SyncProcessor struct {
	source PendingSource
	mirror entries.Mirror
	config SyncProcessorConfig

	attempts map[string]int

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(source PendingSource, mirror entries.Mirror, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		source:   source,
		mirror:   mirror,
		config:   config,
		attempts: make(map[string]int),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch mirrors one batch of pending entries and returns how many
// were synced.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) int {
	pending, err := p.source.GetPendingSyncEntries(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch pending entries", "error", err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(pending))

	synced := 0
	for _, item := range pending {
		if ctx.Err() != nil {
			return synced
		}
		if err := p.syncEntry(ctx, item.ID); err != nil {
			p.handleFailure(ctx, item.ID, err)
			continue
		}
		delete(p.attempts, item.ID)
		synced++
	}
	return synced
}

func (p *SyncProcessor) syncEntry(ctx context.Context, id string) error {
	e, err := p.source.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry %s: %w", id, err)
	}
	ref, err := p.mirror.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}
	if err := p.source.MarkSynced(ctx, id); err != nil {
		// the row is mirrored; it will be retried and skipped as duplicate
		slog.WarnContext(ctx, "Failed to mark entry as synced", "id", id, "error", err)
	}
	slog.InfoContext(ctx, "Synced entry to mirror", "id", id, "ref", ref)
	return nil
}

func (p *SyncProcessor) handleFailure(ctx context.Context, id string, syncErr error) {
	p.attempts[id]++
	n := p.attempts[id]
	slog.WarnContext(ctx, "Sync processing failed", "id", id, "attempt", n, "error", syncErr)

	if n < p.config.MaxRetries {
		return
	}
	delete(p.attempts, id)
	if err := p.source.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark entry sync error", "id", id, "error", err)
	}
	slog.ErrorContext(ctx, "Entry sync failed permanently after max retries", "id", id, "attempts", n)
}

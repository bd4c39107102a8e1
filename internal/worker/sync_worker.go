package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ledger/internal/amqp"
	"ledger/internal/entries"
	"ledger/internal/storage"
)

// SyncTracker records mirror state per entry. Only the SQLite backend has one.
type SyncTracker interface {
	GetPendingSyncEntries(ctx context.Context, limit int) ([]storage.PendingSyncEntry, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// DefaultMaxRetries is how many failed mirror writes an entry gets before
// it is marked as a sync error.
const DefaultMaxRetries = 3

// SyncWorker mirrors entries into the spreadsheet as AMQP messages arrive.
type SyncWorker struct {
	reader     entries.EntryReader
	mirror     entries.Mirror
	tracker    SyncTracker
	batchSize  int
	maxRetries int

	mu       sync.Mutex
	attempts map[string]int
}

// NewSyncWorker builds a worker; tracker may be nil.
func NewSyncWorker(reader entries.EntryReader, mirror entries.Mirror, tracker SyncTracker, batchSize int) *SyncWorker {
	return &SyncWorker{
		reader:     reader,
		mirror:     mirror,
		tracker:    tracker,
		batchSize:  batchSize,
		maxRetries: DefaultMaxRetries,
		attempts:   make(map[string]int),
	}
}

// WithMaxRetries sets the failure budget per entry; n below one means one.
func (w *SyncWorker) WithMaxRetries(n int) *SyncWorker {
	w.maxRetries = max(n, 1)
	return w
}

// HandleMessage is an amqp.Handler.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.EntryMessage) error {
	switch msg.Op {
	case amqp.OpSync:
		return w.HandleSync(ctx, msg.ID)
	case amqp.OpDelete:
		return w.HandleDelete(ctx, msg.ID)
	default:
		return fmt.Errorf("unknown operation %q", msg.Op)
	}
}

// HandleSync mirrors one entry. An entry deleted before the message
// arrived is skipped. A failed mirror write leaves the entry pending and
// returns an error so the message is requeued; once the retry budget is
// spent the entry is marked as a sync error and the message is settled.
func (w *SyncWorker) HandleSync(ctx context.Context, id string) error {
	slog.InfoContext(ctx, "Processing sync message", "id", id)

	e, err := w.reader.Get(ctx, id)
	if errors.Is(err, entries.ErrNotFound) {
		slog.WarnContext(ctx, "Entry gone before sync, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	ref, err := w.mirror.Append(ctx, e)
	if err != nil {
		n := w.recordFailure(id)
		if n < w.maxRetries {
			slog.WarnContext(ctx, "Mirror append failed, will retry", "id", id, "attempt", n, "error", err)
			return fmt.Errorf("append to mirror: %w", err)
		}
		w.markError(ctx, id)
		slog.ErrorContext(ctx, "Entry sync failed permanently after max retries", "id", id, "attempts", n, "error", err)
		return nil
	}
	w.clearFailures(id)

	if w.tracker != nil {
		if err := w.tracker.MarkSynced(ctx, id); err != nil {
			// the row is in the sheet already
			slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		}
	}

	slog.InfoContext(ctx, "Successfully synced entry", "id", id, "sheets_ref", ref)
	return nil
}

// HandleDelete removes an entry's row from the mirror. A row that was never
// mirrored counts as removed.
func (w *SyncWorker) HandleDelete(ctx context.Context, id string) error {
	slog.InfoContext(ctx, "Processing delete message", "id", id)

	err := w.mirror.Remove(ctx, id)
	if errors.Is(err, entries.ErrNotFound) {
		slog.InfoContext(ctx, "Entry not present in mirror", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Successfully removed entry from mirror", "id", id)
	return nil
}

func (w *SyncWorker) recordFailure(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[id]++
	n := w.attempts[id]
	if n >= w.maxRetries {
		delete(w.attempts, id)
	}
	return n
}

func (w *SyncWorker) clearFailures(id string) {
	w.mu.Lock()
	delete(w.attempts, id)
	w.mu.Unlock()
}

func (w *SyncWorker) markError(ctx context.Context, id string) {
	if w.tracker == nil {
		return
	}
	if err := w.tracker.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
	}
}

// StartupSyncCheck mirrors entries left pending while the worker was down.
// It returns the number of entries synced.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) (int, error) {
	if w.tracker == nil {
		return 0, nil
	}

	pending, err := w.tracker.GetPendingSyncEntries(ctx, w.batchSize*5)
	if err != nil {
		return 0, fmt.Errorf("get pending entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return 0, nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...", "count", len(pending))

	successCount, errorCount := 0, 0
	for _, p := range pending {
		if err := w.HandleSync(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup", "id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return successCount, nil
}

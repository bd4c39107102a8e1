package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/entries"

	_ "modernc.org/sqlite"
)

// Sync states of an entry relative to the spreadsheet mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

var _ entries.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements entries.EntryWriter. New entries start pending sync.
func (r *SQLiteRepository) Create(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	row, err := r.queries.CreateEntry(ctx, CreateEntryParams{
		ID:          uuid.NewString(),
		Date:        e.Date.String(),
		Description: e.Description,
		Kind:        string(e.Kind),
		Category:    e.Category,
		Amount:      e.Amount.String(),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	created, err := row.toEntry()
	if err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", created.ID,
		"kind", created.Kind,
		"category", created.Category,
		"amount", created.Amount.String(),
		"date", created.Date.String())

	return created, nil
}

// List implements entries.EntryReader
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Get implements entries.EntryReader
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Entry, error) {
	row, err := r.queries.GetEntry(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, entries.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry by id: %w", err)
	}
	return row.toEntry()
}

// Delete implements entries.EntryDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return entries.ErrNotFound
	}
	slog.InfoContext(ctx, "Entry deleted from SQLite", "id", id)
	return nil
}

// PendingSyncEntry is the minimal data needed for sync queue messages
type PendingSyncEntry struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// GetPendingSyncEntries returns entries not yet mirrored, oldest first.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]PendingSyncEntry, error) {
	rows, err := r.queries.GetPendingSyncEntries(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	out := make([]PendingSyncEntry, len(rows))
	for i, row := range rows {
		created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
		out[i] = PendingSyncEntry{ID: row.ID, Version: row.Version, CreatedAt: created}
	}
	return out, nil
}

// MarkSynced marks an entry as mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.queries.MarkEntrySynced(ctx, r.now().UTC().Format(time.RFC3339Nano), id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	slog.InfoContext(ctx, "Entry marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an entry whose mirror write failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkEntrySyncError(ctx, id); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

// SyncStatusCounts returns the number of entries per sync state.
func (r *SQLiteRepository) SyncStatusCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := r.queries.CountBySyncStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sync status: %w", err)
	}
	return counts, nil
}

func (row EntryRow) toEntry() (core.Entry, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: date %q: %w", row.ID, row.Date, err)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: amount %q: %w", row.ID, row.Amount, err)
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: created_at %q: %w", row.ID, row.CreatedAt, err)
	}
	return core.Entry{
		ID:          row.ID,
		Date:        d,
		Description: row.Description,
		Kind:        core.Kind(row.Kind),
		Category:    row.Category,
		Amount:      amount,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   created,
	}, nil
}

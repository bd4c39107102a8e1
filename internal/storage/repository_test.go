package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/entries"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newEntry(date string, kind core.Kind, category, amount string) core.Entry {
	d, _ := core.ParseDate(date)
	return core.Entry{
		Date:        d,
		Description: category + " entry",
		Kind:        kind,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		CreatedBy:   "a@example.com",
	}
}

func TestSQLiteRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.Create(ctx, newEntry("2024-01-15", core.Income, "Salary", "1000.25"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("Create did not assign id/created_at: %+v", first)
	}
	if !first.Amount.Equal(decimal.RequireFromString("1000.25")) {
		t.Fatalf("amount round trip = %s", first.Amount)
	}
	second, err := repo.Create(ctx, newEntry("2024-02-01", core.Expense, "Food", "12.5"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("List not newest first: %+v", list)
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil || got.Category != "Salary" || got.Kind != core.Income || got.CreatedBy != "a@example.com" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !errors.Is(err, entries.ErrNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
	if _, err := repo.Get(ctx, first.ID); !errors.Is(err, entries.ErrNotFound) {
		t.Fatalf("Get deleted err = %v", err)
	}
}

func TestSQLiteRepositoryRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	e := newEntry("2024-01-15", core.Income, "Salary", "1")
	e.Kind = "Transfer"
	if _, err := repo.Create(context.Background(), e); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("err = %v", err)
	}
}

func TestSQLiteRepositorySyncBookkeeping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	a, _ := repo.Create(ctx, newEntry("2024-03-01", core.Expense, "Food", "5"))
	b, _ := repo.Create(ctx, newEntry("2024-03-01", core.Expense, "Bills", "7"))
	c, _ := repo.Create(ctx, newEntry("2024-03-01", core.Income, "Salary", "9"))

	pending, err := repo.GetPendingSyncEntries(ctx, 2)
	if err != nil {
		t.Fatalf("GetPendingSyncEntries: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != a.ID || pending[1].ID != b.ID {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].Version != 1 {
		t.Fatalf("version = %d", pending[0].Version)
	}

	if err := repo.MarkSynced(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSyncError(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	pending, _ = repo.GetPendingSyncEntries(ctx, 10)
	if len(pending) != 1 || pending[0].ID != c.ID {
		t.Fatalf("pending after marks = %+v", pending)
	}

	counts, err := repo.SyncStatusCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[SyncPending] != 1 || counts[SyncSynced] != 1 || counts[SyncError] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	repo.Close()
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 || dirty {
		t.Fatalf("version = %d dirty = %v", v, dirty)
	}
}

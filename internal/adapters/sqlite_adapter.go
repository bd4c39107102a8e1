package adapters

import (
	"context"

	"ledger/internal/core"
	"ledger/internal/entries"
	"ledger/internal/services"
	"ledger/internal/storage"
)

var _ entries.Store = (*SQLiteAdapter)(nil)

// SQLiteAdapter puts the SQLite repository and EntryService behind
// entries.Store: writes go through the service so they are published,
// reads go straight to SQLite.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.EntryService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.EntryService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

func (a *SQLiteAdapter) Create(ctx context.Context, e core.Entry) (core.Entry, error) {
	return a.service.Create(ctx, e)
}

func (a *SQLiteAdapter) Delete(ctx context.Context, id string) error {
	return a.service.Delete(ctx, id)
}

func (a *SQLiteAdapter) List(ctx context.Context) ([]core.Entry, error) {
	return a.storage.List(ctx)
}

func (a *SQLiteAdapter) Get(ctx context.Context, id string) (core.Entry, error) {
	return a.storage.Get(ctx, id)
}

// Ping checks the database for readiness probes.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

// SyncStatus reports how many entries are pending, synced or failed.
func (a *SQLiteAdapter) SyncStatus(ctx context.Context) (map[string]int64, error) {
	return a.storage.SyncStatusCounts(ctx)
}

// Close closes the service, which closes the repository and AMQP client.
func (a *SQLiteAdapter) Close() error {
	return a.service.Close()
}

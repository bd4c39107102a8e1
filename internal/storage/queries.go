package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// EntryRow is a row of the entries table.
type EntryRow struct {
	ID          string
	Date        string
	Description string
	Kind        string
	Category    string
	Amount      string
	CreatedBy   string
	CreatedAt   string
	Version     int64
	SyncStatus  string
	SyncedAt    sql.NullString
}

const entryColumns = `id, date, description, kind, category, amount, created_by, created_at, version, sync_status, synced_at`

func scanEntry(sc interface{ Scan(...any) error }) (EntryRow, error) {
	var i EntryRow
	err := sc.Scan(
		&i.ID,
		&i.Date,
		&i.Description,
		&i.Kind,
		&i.Category,
		&i.Amount,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.Version,
		&i.SyncStatus,
		&i.SyncedAt,
	)
	return i, err
}

const createEntry = `INSERT INTO entries (id, date, description, kind, category, amount, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + entryColumns

type CreateEntryParams struct {
	ID          string
	Date        string
	Description string
	Kind        string
	Category    string
	Amount      string
	CreatedBy   string
	CreatedAt   string
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (EntryRow, error) {
	row := q.db.QueryRowContext(ctx, createEntry,
		arg.ID,
		arg.Date,
		arg.Description,
		arg.Kind,
		arg.Category,
		arg.Amount,
		arg.CreatedBy,
		arg.CreatedAt,
	)
	return scanEntry(row)
}

const getEntry = `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`

func (q *Queries) GetEntry(ctx context.Context, id string) (EntryRow, error) {
	return scanEntry(q.db.QueryRowContext(ctx, getEntry, id))
}

const listEntries = `SELECT ` + entryColumns + ` FROM entries ORDER BY date DESC, created_at DESC`

func (q *Queries) ListEntries(ctx context.Context) ([]EntryRow, error) {
	return q.query(ctx, listEntries)
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntry, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getPendingSyncEntries = `SELECT ` + entryColumns + ` FROM entries
WHERE sync_status = 'pending'
ORDER BY created_at ASC
LIMIT ?`

func (q *Queries) GetPendingSyncEntries(ctx context.Context, limit int64) ([]EntryRow, error) {
	return q.query(ctx, getPendingSyncEntries, limit)
}

const markEntrySynced = `UPDATE entries SET sync_status = 'synced', synced_at = ? WHERE id = ?`

func (q *Queries) MarkEntrySynced(ctx context.Context, syncedAt, id string) error {
	_, err := q.db.ExecContext(ctx, markEntrySynced, syncedAt, id)
	return err
}

const markEntrySyncError = `UPDATE entries SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkEntrySyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markEntrySyncError, id)
	return err
}

const countBySyncStatus = `SELECT sync_status, COUNT(*) FROM entries GROUP BY sync_status`

func (q *Queries) CountBySyncStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countBySyncStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (q *Queries) query(ctx context.Context, query string, args ...interface{}) ([]EntryRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EntryRow
	for rows.Next() {
		i, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

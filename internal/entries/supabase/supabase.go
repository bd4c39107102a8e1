// Package supabase stores entries in a hosted Postgres table through the
// Supabase PostgREST API.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"ledger/internal/core"
	"ledger/internal/entries"
)

var _ entries.Store = (*Store)(nil)

// DefaultTable is the table entries live in.
const DefaultTable = "accounting_entries"

type Store struct {
	client *supabase.Client
	table  string
}

// row mirrors the accounting_entries columns.
type row struct {
	ID          string          `json:"id,omitempty"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

func New(url, key, table string) (*Store, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	if table == "" {
		table = DefaultTable
	}
	return &Store{client: client, table: table}, nil
}

func toRow(e core.Entry) row {
	return row{
		Date:        e.Date.String(),
		Description: e.Description,
		Type:        string(e.Kind),
		Category:    e.Category,
		Amount:      e.Amount,
		CreatedBy:   e.CreatedBy,
	}
}

func (r row) toEntry() (core.Entry, error) {
	// created_at style timestamps are tolerated in the date column
	date := r.Date
	if len(date) > len(core.DateLayout) {
		date = date[:len(core.DateLayout)]
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: date %q: %w", r.ID, r.Date, err)
	}
	kind, err := core.ParseKind(r.Type)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", r.ID, err)
	}
	e := core.Entry{
		ID:          r.ID,
		Date:        d,
		Description: r.Description,
		Kind:        kind,
		Category:    r.Category,
		Amount:      r.Amount,
		CreatedBy:   r.CreatedBy,
	}
	if r.CreatedAt != nil {
		e.CreatedAt = r.CreatedAt.UTC()
	}
	return e, nil
}

// decodeRows converts a PostgREST response body into entries. Rows that do
// not map onto a valid entry are skipped and logged.
func decodeRows(ctx context.Context, data []byte) ([]core.Entry, error) {
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	out := make([]core.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toEntry()
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed entry row", "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	data, _, err := s.client.From(s.table).Insert(toRow(e), false, "", "representation", "").Execute()
	if err != nil {
		return core.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	created, err := decodeRows(ctx, data)
	if err != nil {
		return core.Entry{}, err
	}
	if len(created) == 0 {
		return core.Entry{}, fmt.Errorf("insert entry: empty response")
	}
	return created[0], nil
}

func (s *Store) List(ctx context.Context) ([]core.Entry, error) {
	data, count, err := s.client.From(s.table).
		Select("*", "", false).
		Order("date", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out, err := decodeRows(ctx, data)
	if err != nil {
		return nil, err
	}
	entries.SortNewestFirst(out)
	slog.DebugContext(ctx, "Listed entries from supabase", "table", s.table, "count", count, "rows", len(out))
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Entry, error) {
	data, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	out, err := decodeRows(ctx, data)
	if err != nil {
		return core.Entry{}, err
	}
	if len(out) == 0 {
		return core.Entry{}, entries.ErrNotFound
	}
	return out[0], nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	data, _, err := s.client.From(s.table).
		Delete("representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	var deleted []row
	if err := json.Unmarshal(data, &deleted); err != nil {
		return fmt.Errorf("decode delete response: %w", err)
	}
	if len(deleted) == 0 {
		return entries.ErrNotFound
	}
	return nil
}

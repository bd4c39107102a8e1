package report

import "ledger/internal/core"

// DefaultPageSize is the table page size when none is configured.
const DefaultPageSize = 10

// Page is one slice of a paginated collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// Paginate returns the 1-based page of items. Pages outside
// [1, TotalPages] come back empty. A pageSize <= 0 yields no pages.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	p := Page[T]{Items: []T{}, Page: page, TotalItems: len(items)}
	if pageSize <= 0 {
		return p
	}
	p.TotalPages = (len(items) + pageSize - 1) / pageSize
	if page < 1 || page > p.TotalPages {
		return p
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	p.Items = append(p.Items, items[start:end]...)
	return p
}

// TableState tracks the criteria and page of a paginated table. Changing
// the criteria sends the table back to page 1.
type TableState struct {
	criteria FilterCriteria
	key      string
	page     int
}

func NewTableState(c FilterCriteria) *TableState {
	return &TableState{criteria: c, key: c.Key(), page: 1}
}

// ResumeTableState restores a table a client last saw at page under the
// criteria fingerprint key. Call SetCriteria before reading from it.
func ResumeTableState(key string, page int) *TableState {
	return &TableState{key: key, page: max(1, page)}
}

func (s *TableState) Criteria() FilterCriteria { return s.criteria }

func (s *TableState) Page() int { return s.page }

// Key is the fingerprint of the current criteria.
func (s *TableState) Key() string { return s.key }

// SetCriteria replaces the criteria. The page resets to 1 when they differ.
func (s *TableState) SetCriteria(c FilterCriteria) {
	k := c.Key()
	if k != s.key {
		s.page = 1
	}
	s.criteria, s.key = c, k
}

// SetPage moves to page n; values below 1 clamp to 1.
func (s *TableState) SetPage(n int) {
	s.page = max(1, n)
}

// TableView is the current page of a table and the totals of every row
// matching its criteria.
type TableView struct {
	Rows   Page[core.Entry]
	Totals PeriodTotals
}

// View filters entries with the current criteria and slices the current page.
func (s *TableState) View(entries []core.Entry, pageSize int) TableView {
	filtered := ApplyFilters(entries, s.criteria)
	return TableView{
		Rows:   Paginate(filtered, s.page, pageSize),
		Totals: ComputeTotals(filtered),
	}
}

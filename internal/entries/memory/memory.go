// Package memory is an in-process entry store used for development,
// demos and tests.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/entries"
)

var _ entries.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Entry
	now   func() time.Time
}

func New(seed ...core.Entry) *Store {
	s := &Store{now: time.Now}
	for _, e := range seed {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.items = append(s.items, e)
	}
	return s
}

// NewFromFile seeds the store from a CSV file with the columns
// date,description,type,category,amount[,created_by]. A missing file yields
// an empty store; lines starting with # and a header row are skipped.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	seed, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return New(seed...), nil
}

// ReadCSV parses seed rows. Invalid rows abort with the offending line.
func ReadCSV(r io.Reader) ([]core.Entry, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var out []core.Entry
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: expected at least 5 columns, got %d", line, len(rec))
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRecord(rec []string) (core.Entry, error) {
	d, err := core.ParseDate(rec[0])
	if err != nil {
		return core.Entry{}, err
	}
	kind, err := core.ParseKind(rec[2])
	if err != nil {
		return core.Entry{}, err
	}
	amount, err := core.ParseAmount(rec[4])
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{
		Date:        d,
		Description: strings.TrimSpace(rec[1]),
		Kind:        kind,
		Category:    strings.TrimSpace(rec[3]),
		Amount:      amount,
	}
	if len(rec) > 5 {
		e.CreatedBy = strings.TrimSpace(rec[5])
	}
	return e, e.Validate()
}

// Create stores the entry under a fresh uuid.
func (s *Store) Create(_ context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) List(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	out := append([]core.Entry(nil), s.items...)
	s.mu.Unlock()
	entries.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Entry{}, entries.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return entries.ErrNotFound
}

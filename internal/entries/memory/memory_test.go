package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/entries"
)

func sample(date string, kind core.Kind) core.Entry {
	d, _ := core.ParseDate(date)
	return core.Entry{Date: d, Description: "t", Kind: kind, Category: "Food", Amount: decimal.NewFromInt(10)}
}

func TestMemoryStoreCreateListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	fixed := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	older, err := s.Create(ctx, sample("2024-01-01", core.Expense))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if older.ID == "" || !older.CreatedAt.Equal(fixed) {
		t.Fatalf("create did not assign id/created_at: %+v", older)
	}
	newer, _ := s.Create(ctx, sample("2024-02-01", core.Income))

	list, err := s.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].ID != newer.ID {
		t.Fatalf("list not newest first: %v", list)
	}

	got, err := s.Get(ctx, older.ID)
	if err != nil || got.ID != older.ID {
		t.Fatalf("get: %+v %v", got, err)
	}

	if err := s.Delete(ctx, older.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, older.ID); !errors.Is(err, entries.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if _, err := s.Get(ctx, older.ID); !errors.Is(err, entries.ErrNotFound) {
		t.Fatalf("get deleted err = %v", err)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	e := sample("2024-01-01", core.Expense)
	e.Amount = decimal.Zero
	if _, err := New().Create(context.Background(), e); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v", err)
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := New(sample("2024-01-01", core.Expense))
	list, _ := s.List(context.Background())
	list[0].Category = "changed"
	again, _ := s.List(context.Background())
	if again[0].Category != "Food" {
		t.Fatal("List exposed internal slice")
	}
}

func TestReadCSV(t *testing.T) {
	in := "date,description,type,category,amount,created_by\n" +
		"# comment\n" +
		"2024-01-15,Pay,Income,Salary,1000,a@example.com\n" +
		"2024-01-20,Lunch,expense,Food,\"12,50\"\n"
	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries", len(got))
	}
	if got[0].Kind != core.Income || got[0].CreatedBy != "a@example.com" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Kind != core.Expense || !got[1].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("second = %+v", got[1])
	}

	if _, err := ReadCSV(strings.NewReader("2024-01-15,Pay,Transfer,Salary,10\n")); !errors.Is(err, core.ErrInvalidKind) {
		t.Errorf("bad kind err = %v", err)
	}
	if _, err := ReadCSV(strings.NewReader("2024-01-15,Pay,Income\n")); err == nil {
		t.Error("expected column count error")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.csv"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if list, _ := s.List(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store, got %v", list)
	}

	path := filepath.Join(dir, "seed.csv")
	if err := os.WriteFile(path, []byte("2024-01-15,Pay,Income,Salary,1000\n2024-01-16,Bus,Expense,Transport,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed file: %v", err)
	}
	list, _ := s.List(context.Background())
	if len(list) != 2 || list[0].ID == "" || list[0].Category != "Transport" {
		t.Fatalf("seeded list = %+v", list)
	}
}

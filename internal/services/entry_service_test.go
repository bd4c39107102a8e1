package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/entries"
	"ledger/internal/entries/memory"
)

type fakePublisher struct {
	mu      sync.Mutex
	synced  []string
	deleted []string
	err     error
	closed  bool
}

func (f *fakePublisher) PublishEntrySync(_ context.Context, id string, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced = append(f.synced, id)
	return f.err
}

func (f *fakePublisher) PublishEntryDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func validEntry() core.Entry {
	return core.Entry{
		Date:        core.NewDate(2024, 3, 5),
		Description: "Groceries",
		Kind:        core.Expense,
		Category:    "Food",
		Amount:      decimal.NewFromInt(1200),
	}
}

func TestEntryService_Create(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewEntryService(memory.New(), pub)

	saved, err := svc.Create(ctx, validEntry())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("saved entry should have an id")
	}
	if len(pub.synced) != 1 || pub.synced[0] != saved.ID {
		t.Fatalf("published = %v, want [%s]", pub.synced, saved.ID)
	}

	got, err := svc.Get(ctx, saved.ID)
	if err != nil || got.Description != "Groceries" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestEntryService_CreateInvalid(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewEntryService(memory.New(), pub)

	bad := validEntry()
	bad.Amount = decimal.Zero
	if _, err := svc.Create(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if len(pub.synced) != 0 {
		t.Fatal("invalid entry must not be published")
	}
}

func TestEntryService_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewEntryService(memory.New(), pub)

	saved, err := svc.Create(ctx, validEntry())
	if err != nil {
		t.Fatalf("Create should succeed when publish fails: %v", err)
	}
	if err := svc.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete should succeed when publish fails: %v", err)
	}
}

func TestEntryService_Delete(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewEntryService(memory.New(), pub)

	saved, _ := svc.Create(ctx, validEntry())
	if err := svc.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(pub.deleted) != 1 || pub.deleted[0] != saved.ID {
		t.Fatalf("deleted = %v", pub.deleted)
	}

	if err := svc.Delete(ctx, saved.ID); !errors.Is(err, entries.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	if len(pub.deleted) != 1 {
		t.Fatal("a failed delete must not be published")
	}
}

func TestEntryService_NilPublisher(t *testing.T) {
	svc := NewEntryService(memory.New(), nil)
	if _, err := svc.Create(context.Background(), validEntry()); err != nil {
		t.Fatalf("Create without publisher: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestEntryService_Close(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewEntryService(memory.New(), pub)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Error("publisher should be closed")
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/entries"
	"ledger/internal/storage"
)

type fakeSource struct {
	entries map[string]core.Entry
	pending []string
	synced  []string
	errored []string
}

func newFakeSource(ids ...string) *fakeSource {
	s := &fakeSource{entries: make(map[string]core.Entry)}
	for _, id := range ids {
		e := validEntry()
		e.ID = id
		s.entries[id] = e
		s.pending = append(s.pending, id)
	}
	return s
}

func (s *fakeSource) GetPendingSyncEntries(_ context.Context, limit int) ([]storage.PendingSyncEntry, error) {
	var out []storage.PendingSyncEntry
	for _, id := range s.pending {
		if len(out) == limit {
			break
		}
		out = append(out, storage.PendingSyncEntry{ID: id, Version: 1})
	}
	return out, nil
}

func (s *fakeSource) Get(_ context.Context, id string) (core.Entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return core.Entry{}, entries.ErrNotFound
	}
	return e, nil
}

func (s *fakeSource) remove(id string) {
	for i, p := range s.pending {
		if p == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func (s *fakeSource) MarkSynced(_ context.Context, id string) error {
	s.synced = append(s.synced, id)
	s.remove(id)
	return nil
}

func (s *fakeSource) MarkSyncError(_ context.Context, id string) error {
	s.errored = append(s.errored, id)
	s.remove(id)
	return nil
}

type fakeMirror struct {
	appended []string
	removed  []string
	err      error
}

func (m *fakeMirror) Append(_ context.Context, e core.Entry) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.appended = append(m.appended, e.ID)
	return "Entries!A2", nil
}

func (m *fakeMirror) Remove(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, id)
	return nil
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != 10*time.Second {
		t.Errorf("expected PollInterval 10s, got %v", config.PollInterval)
	}
	if config.BatchSize != 10 {
		t.Errorf("expected BatchSize 10, got %d", config.BatchSize)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
}

func TestSyncProcessor_ProcessBatch(t *testing.T) {
	src := newFakeSource("a", "b", "c")
	mirror := &fakeMirror{}
	config := DefaultSyncProcessorConfig()
	config.BatchSize = 2
	p := NewSyncProcessor(src, mirror, config)

	ctx := context.Background()
	if n := p.ProcessBatch(ctx); n != 2 {
		t.Fatalf("first batch synced %d, want 2", n)
	}
	if n := p.ProcessBatch(ctx); n != 1 {
		t.Fatalf("second batch synced %d, want 1", n)
	}
	if n := p.ProcessBatch(ctx); n != 0 {
		t.Fatalf("empty batch synced %d, want 0", n)
	}
	if len(mirror.appended) != 3 || len(src.synced) != 3 {
		t.Fatalf("appended %v, synced %v", mirror.appended, src.synced)
	}
}

func TestSyncProcessor_MaxRetries(t *testing.T) {
	src := newFakeSource("a")
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	p := NewSyncProcessor(src, mirror, DefaultSyncProcessorConfig())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		p.ProcessBatch(ctx)
		if len(src.errored) != 0 {
			t.Fatalf("marked as error after %d attempts", i+1)
		}
	}
	p.ProcessBatch(ctx)
	if len(src.errored) != 1 || src.errored[0] != "a" {
		t.Fatalf("errored = %v, want [a]", src.errored)
	}
}

func TestSyncProcessor_IsRunning(t *testing.T) {
	p := NewSyncProcessor(newFakeSource(), &fakeMirror{}, DefaultSyncProcessorConfig())
	if p.IsRunning() {
		t.Error("processor should not be running initially")
	}
}

func TestSyncProcessor_StartStop(t *testing.T) {
	src := newFakeSource("a")
	mirror := &fakeMirror{}
	config := DefaultSyncProcessorConfig()
	config.PollInterval = 10 * time.Millisecond
	p := NewSyncProcessor(src, mirror, config)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}
	if !p.IsRunning() {
		t.Error("processor should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should be stopped")
	}
	if len(mirror.appended) != 1 {
		t.Errorf("startup batch should mirror pending entries, got %v", mirror.appended)
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	p := NewSyncProcessor(nil, nil, DefaultSyncProcessorConfig())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

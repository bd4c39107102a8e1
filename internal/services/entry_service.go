package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ledger/internal/core"
	"ledger/internal/entries"
)

// Publisher announces entry changes to the sync worker.
type Publisher interface {
	PublishEntrySync(ctx context.Context, id string, version int64) error
	PublishEntryDelete(ctx context.Context, id string) error
}

var _ entries.Store = (*EntryService)(nil)

// EntryService orchestrates entry writes across the store and AMQP. It is
// itself an entries.Store, so handlers never talk to the backend directly.
type EntryService struct {
	store     entries.Store
	publisher Publisher
	now       func() time.Time
}

// NewEntryService wires a store and an optional publisher (nil disables sync).
func NewEntryService(store entries.Store, publisher Publisher) *EntryService {
	return &EntryService{store: store, publisher: publisher, now: time.Now}
}

// Create validates e, saves it and publishes a sync message. A failed
// publish is logged but does not fail the request.
func (s *EntryService) Create(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	saved, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	// version 1 for a new entry
	if err := s.publishSync(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", saved.ID, "error", err)
	}
	return saved, nil
}

func (s *EntryService) List(ctx context.Context) ([]core.Entry, error) {
	return s.store.List(ctx)
}

func (s *EntryService) Get(ctx context.Context, id string) (core.Entry, error) {
	return s.store.Get(ctx, id)
}

// Delete removes the entry locally, then asks the worker to drop it from
// the mirror.
func (s *EntryService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

func (s *EntryService) publishSync(ctx context.Context, id string, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishEntrySync(ctx, id, version)
}

func (s *EntryService) publishDelete(ctx context.Context, id string) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishEntryDelete(ctx, id)
}

// Close closes the store and publisher when they hold resources.
func (s *EntryService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %v", errs)
	}
	return nil
}

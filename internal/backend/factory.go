// Package backend builds the entry store selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/adapters"
	"ledger/internal/amqp"
	"ledger/internal/entries"
	"ledger/internal/entries/memory"
	"ledger/internal/entries/supabase"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready-to-use store plus its readiness probe and cleanup.
type Result struct {
	Store   entries.Store
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SupabaseBackend:
		return f.createSupabaseBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// publisher connects to AMQP when configured. A broker that cannot be
// reached leaves sync to the pending poller.
func (f *Factory) publisher(config Config) services.Publisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func (f *Factory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	pub := f.publisher(config)
	adapter := adapters.NewSQLiteAdapter(repo, services.NewEntryService(repo, pub))

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", pub != nil)

	return &Result{Store: adapter, Ping: adapter.Ping, Cleanup: adapter.Close}, nil
}

func (f *Factory) createSupabaseBackend(config Config) (*Result, error) {
	store, err := supabase.New(config.SupabaseURL, config.SupabaseKey, config.SupabaseTable)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase store: %w", err)
	}

	pub := f.publisher(config)
	svc := services.NewEntryService(store, pub)

	f.logger.Info("Initialized Supabase backend",
		"table", config.SupabaseTable,
		"amqp_enabled", pub != nil)

	ping := func(ctx context.Context) error {
		_, err := store.List(ctx)
		return err
	}
	return &Result{Store: svc, Ping: ping, Cleanup: svc.Close}, nil
}

func (f *Factory) createMemoryBackend(config Config) (*Result, error) {
	store := memory.New()
	if config.SeedFile != "" {
		seeded, err := memory.NewFromFile(config.SeedFile)
		if err != nil {
			return nil, err
		}
		store = seeded
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	svc := services.NewEntryService(store, nil)
	return &Result{
		Store:   svc,
		Ping:    func(context.Context) error { return nil },
		Cleanup: svc.Close,
	}, nil
}

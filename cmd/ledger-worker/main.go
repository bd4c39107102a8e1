package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/services"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/storage"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}

func run(logger *log.Logger, cfg *config.Config) error {
	if !cfg.SheetsEnabled() {
		return fmt.Errorf("GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	if cfg.AMQPURL == "" {
		logger.Warn("AMQP_URL not set, relying on the pending-sync poller only")
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// The worker reads entries from the SQLite store the server writes to.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	sheets, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("google sheets client: %w", err)
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("ensure sheet header: %w", err)
	}
	logger.Info("Google Sheets mirror ready", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	maxRetries := services.DefaultSyncProcessorConfig().MaxRetries
	syncWorker := worker.NewSyncWorker(repo, sheets, repo, cfg.SyncBatchSize).WithMaxRetries(maxRetries)

	logger.Info("Performing startup sync check...")
	if n, err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	} else if n > 0 {
		logger.Info("Startup sync complete", "synced", n)
	}

	processor := services.NewSyncProcessor(repo, sheets, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
		MaxRetries:   maxRetries,
	})

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("amqp client: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			logger.Info("Consuming entry messages", "queue", cfg.AMQPQueue)
			return client.Consume(gctx, syncWorker.HandleMessage)
		})
	}

	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return processor.Stop(stopCtx)
	})

	return g.Wait()
}

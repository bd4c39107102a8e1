package main

import (
	"context"
	"os"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	// Reports go to stdout; keep logs quiet unless asked for.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: log.ComponentCLI, Output: os.Stderr})
	log.SetDefault(logger)

	app := &cli.App{
		Open: func(ctx context.Context, backendType string) (*backend.Result, error) {
			c := *cfg
			if backendType != "" {
				c.DataBackend = backendType
			}
			return cli.OpenBackend(ctx, logger, &c)
		},
		CurrencySymbol: cfg.CurrencySymbol,
		ReportTitle:    cfg.ReportTitle,
		PageSize:       cfg.PageSize,
		TopCategories:  cfg.TopCategories,
	}

	ctx, stop := cli.SignalContext(context.Background())
	code := cli.Execute(ctx, cli.NewRootCmd(app), os.Stderr)
	stop()
	os.Exit(code)
}

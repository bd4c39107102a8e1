package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/cli"
	"ledger/internal/config"
	httpapi "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
)

const (
	shutdownTimeout   = 15 * time.Second
	cacheCleanupEvery = 10 * time.Minute
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(logger *log.Logger, cfg *config.Config) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	result, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	manager := cache.NewManager()
	var chartCache cache.Cache[[]byte]
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL, "ledger:", cfg.CacheTTL)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process chart cache", log.FieldError, err)
		} else {
			defer rc.Close()
			chartCache = rc
			logger.Info("Chart cache backed by Redis")
		}
	}
	if chartCache == nil {
		lru := cache.NewLRUCache[[]byte](100, cfg.CacheTTL)
		manager.Register(lru)
		chartCache = lru
	}

	var verifier *auth.Verifier
	if cfg.SupabaseJWTSecret != "" {
		verifier = auth.NewVerifier(cfg.SupabaseJWTSecret, "authenticated", cfg)
	}

	srv := httpapi.NewServer(httpapi.Options{
		Addr:           ":" + cfg.Port,
		Store:          result.Store,
		Ping:           result.Ping,
		Logger:         logger.WithComponent(log.ComponentHTTP),
		ChartCache:     chartCache,
		Limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		Verifier:       verifier,
		AuthRequired:   cfg.AuthRequired,
		TrustedProxies: cfg.TrustedProxies,
		PageSize:       cfg.PageSize,
		TopCategories:  cfg.TopCategories,
		ReportTitle:    cfg.ReportTitle,
		CurrencySymbol: cfg.CurrencySymbol,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr, "backend", cfg.DataBackend, "auth_required", cfg.AuthRequired)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return manager.Run(gctx, cacheCleanupEvery)
	})
	g.Go(func() error {
		return srv.Limiter().Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"shopledger/internal/backend"
	"shopledger/internal/catalog"
	"shopledger/internal/cli"
	"shopledger/internal/config"
	apphttp "shopledger/internal/http"
	"shopledger/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	cat := loadCatalog(logger, cfg)

	opts := apphttp.Options{
		Location:          cfg.Location(),
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: cfg.AdminPasswordHash,
		StoreTimeout:      cfg.StoreTimeout,
		TrustedProxies:    cfg.TrustedProxies,
		RateLimitRPM:      cfg.RateLimitRPM,
		SessionTTL:        cfg.SessionTTL,
		MaxSessions:       cfg.MaxSessions,
		Logger:            logger,
	}
	if result.Ping != nil {
		opts.Ping = result.Ping
	}
	if cfg.SeedMode == config.SeedCatalog {
		opts.Seed = cat
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, cat, opts)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting shopledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.TimeZone,
		"catalog_items", cat.Len(),
		"seed_mode", cfg.SeedMode)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// loadCatalog reads CATALOG_FILE, falling back to the built-in menu when it
// is unset or unreadable.
func loadCatalog(logger *log.Logger, cfg *config.Config) *catalog.Catalog {
	if cfg.CatalogFile == "" {
		return catalog.Starter()
	}
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Warn("Failed to load catalog, using built-in menu", log.FieldError, err, "path", cfg.CatalogFile)
		return catalog.Starter()
	}
	return cat
}

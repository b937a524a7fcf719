package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"txhistory/internal/cache"
	"txhistory/internal/config"
	"txhistory/internal/core"
	apphttp "txhistory/internal/http"
	"txhistory/internal/log"
	"txhistory/internal/metrics"
	"txhistory/internal/rates"
	"txhistory/internal/services"
	"txhistory/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	log.SetDefault(logger)

	logger.Info("Starting txhistory API")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required for the API binary")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	collector := metrics.NewCollector()

	rateCache := cache.NewLRUCache[core.ExchangeRate](cfg.RateCacheSize, 0)
	resolver := rates.NewResolver(rates.DefaultSource(), rateCache)

	queryService := services.NewQueryService(repo, resolver, collector)

	srv := apphttp.NewServer(":"+cfg.Port, queryService, collector, apphttp.Options{
		JWTSecret:           []byte(cfg.JWTSecret),
		TokenExpiry:         cfg.TokenExpiry,
		DefaultBaseCurrency: cfg.DefaultBaseCurrency,
	})

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port, "base_currency", cfg.DefaultBaseCurrency)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"txhistory/internal/amqp"
	"txhistory/internal/cache"
	"txhistory/internal/config"
	"txhistory/internal/log"
	"txhistory/internal/metrics"
	"txhistory/internal/services"
	"txhistory/internal/storage"
	"txhistory/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting txhistory-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueuePrefix, cfg.PartitionCount)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	collector := metrics.NewCollector()
	ingestor := services.NewIngestor(repo, collector)

	// Failed-delivery counters live in a TTL cache so abandoned entries age out.
	attempts := cache.NewLRUCache[int](4096, 30*time.Minute)
	cacheManager := cache.NewManager()
	cacheManager.Register(attempts)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	ingestWorker := worker.NewIngestWorker(
		amqpClient, ingestor, collector, attempts,
		cfg.IngestMaxAttempts, cfg.IngestPrefetch,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- ingestWorker.Run(ctx)
	}()

	logger.Info("Consuming transaction events",
		"partitions", cfg.PartitionCount,
		"prefetch", cfg.IngestPrefetch,
		"max_attempts", cfg.IngestMaxAttempts)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped with error", "error", err)
			os.Exit(1)
		}
	}

	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}

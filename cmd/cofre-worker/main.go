package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cofre/internal/amqp"
	"cofre/internal/config"
	"cofre/internal/export"
	applog "cofre/internal/log"
	"cofre/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting cofre-worker")

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

	statement, err := export.NewStatement(cfg.ExportFilePath)
	if err != nil {
		logger.Error("Failed to open statement file", "error", err, "path", cfg.ExportFilePath)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	procCfg := export.DefaultProcessorConfig()
	procCfg.PollInterval = cfg.ExportInterval
	procCfg.BatchSize = cfg.ExportBatchSize
	procCfg.RetryFailedOnStart = cfg.ExportRetryFailed

	processor := export.NewProcessor(repo, statement, procCfg)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start export processor", "error", err)
		os.Exit(1)
	}

	// AMQP consumption is optional: the queue poller alone keeps exports
	// flowing, the broker only shortens the latency.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on queue polling only", "error", err)
		} else {
			defer amqpClient.Close()
			go func() {
				err := amqpClient.ConsumeLoop(ctx, func(msg *amqp.RecordChangeMessage) error {
					// The export row is already queued by the API; a
					// received event just triggers an immediate drain.
					logger.Info("Record change received",
						"record_type", msg.RecordType,
						"record_id", msg.RecordID,
						"operation", msg.Operation)
					return nil
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", "error", err)
				}
			}()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down worker...")
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Export processor shutdown timed out", "error", err)
	}
	cancel()

	logger.Info("Worker shutdown complete")
}

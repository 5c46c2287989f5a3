package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atom19-i/superannuation/internal/amqp"
	"github.com/atom19-i/superannuation/internal/cli"
	"github.com/atom19-i/superannuation/internal/export"
	"github.com/atom19-i/superannuation/internal/export/google"
	"github.com/atom19-i/superannuation/internal/export/memory"
	"github.com/atom19-i/superannuation/internal/log"
	"github.com/atom19-i/superannuation/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting superannuation-worker")

	repo := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Choose the run ledger: Google Sheets when configured, otherwise an
	// in-process one so local runs still drain the pending queue.
	var ledger export.RunAppender
	if cfg.SpreadsheetID != "" {
		client, err := google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.SpreadsheetID)
	} else {
		ledger = memory.New()
		logger.Info("Google Sheets disabled - using in-memory ledger")
	}

	// AMQP is optional; the periodic sweep alone keeps exports flowing.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep only")
	}

	exportWorker := worker.NewExportWorker(repo, ledger, cfg.ExportBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain anything left over from downtime before consuming new messages.
	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", log.FieldError, err)
		// Keep going; the periodic sweep retries.
	}

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- exportWorker.Run(ctx, amqpClient, cfg.ExportInterval)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
		select {
		case <-workerDone:
			logger.Info("Worker shutdown complete")
		case <-time.After(30 * time.Second):
			logger.Warn("Shutdown timeout reached")
		}
	case err := <-workerDone:
		if err != nil {
			logger.Error("Worker stopped with error", log.FieldError, err)
		}
	}

	logger.Info("Worker stopped")
}

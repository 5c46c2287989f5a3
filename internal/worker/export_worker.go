// Package worker moves recorded runs from SQLite to the external ledger. It
// consumes AMQP notifications and periodically sweeps for rows the messages
// missed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atom19-i/superannuation/internal/amqp"
	"github.com/atom19-i/superannuation/internal/export"
	"github.com/atom19-i/superannuation/internal/log"
	"github.com/atom19-i/superannuation/internal/storage"
)

type ExportWorker struct {
	storage   *storage.RunRepository
	ledger    export.RunAppender
	batchSize int
}

func NewExportWorker(storage *storage.RunRepository, ledger export.RunAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleRunMessage processes a single run-recorded message from AMQP.
func (w *ExportWorker) HandleRunMessage(ctx context.Context, msg *amqp.RunRecordedMessage) error {
	slog.InfoContext(ctx, "Processing run message",
		log.FieldRunID, msg.ID,
		log.FieldDigest, msg.Digest)

	run, err := w.storage.GetRun(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			// The row is gone; requeueing cannot help.
			slog.WarnContext(ctx, "Run no longer exists, dropping message", log.FieldRunID, msg.ID)
			return nil
		}
		return fmt.Errorf("get run from storage: %w", err)
	}

	if run.ExportedAt.Valid {
		slog.InfoContext(ctx, "Run already exported, skipping", log.FieldRunID, msg.ID)
		return nil
	}

	return w.exportRun(ctx, run)
}

// ProcessPending exports any runs that haven't been exported yet. This is a
// backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending runs: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending runs", "count", len(pending))

	for _, run := range pending {
		if err := w.exportRun(ctx, run); err != nil {
			slog.ErrorContext(ctx, "Failed to export run", log.FieldRunID, run.ID, log.FieldError, err)
			continue
		}
	}

	return nil
}

// StartupCheck exports pending runs left over from worker downtime, with a
// larger batch than the periodic sweep.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending runs for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending runs found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending runs on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, run := range pending {
		if err := w.exportRun(ctx, run); err != nil {
			slog.ErrorContext(ctx, "Failed to export run during startup",
				log.FieldRunID, run.ID, log.FieldError, err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

// Run consumes AMQP messages and sweeps pending runs every interval until ctx
// is cancelled. A nil client runs the sweep loop only.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	if client != nil {
		g.Go(func() error {
			err := client.ConsumeRunRecorded(ctx, func(msg *amqp.RunRecordedMessage) error {
				return w.HandleRunMessage(ctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sweep failed", log.FieldError, err)
				}
			}
		}
	})

	return g.Wait()
}

func (w *ExportWorker) exportRun(ctx context.Context, run storage.Run) error {
	ref, err := w.ledger.Append(ctx, run)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.storage.MarkExported(ctx, run.ID); err != nil {
		// The export itself worked; the next sweep may append a duplicate
		// row, which the ledger tolerates.
		slog.ErrorContext(ctx, "Failed to mark run as exported", log.FieldRunID, run.ID, log.FieldError, err)
	}

	slog.InfoContext(ctx, "Exported run",
		log.FieldRunID, run.ID,
		"ledger_ref", ref,
		log.FieldDigest, run.Digest,
		"remanent_paise", run.RemanentPaise)

	return nil
}

// Package services orchestrates the rule pipeline across storage and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atom19-i/superannuation/internal/amqp"
	"github.com/atom19-i/superannuation/internal/engine"
	"github.com/atom19-i/superannuation/internal/log"
	"github.com/atom19-i/superannuation/internal/storage"
)

// RunService computes round-up runs and records their summaries. Recording is
// best effort: the computed result is returned even when the summary cannot
// be stored or announced.
type RunService struct {
	storage    *storage.RunRepository
	amqpClient *amqp.Client
}

func NewRunService(storage *storage.RunRepository, amqpClient *amqp.Client) *RunService {
	return &RunService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// ComputeRun executes the pipeline and records the outcome under the request
// digest. The returned run ID is 0 when recording was skipped or failed.
func (s *RunService) ComputeRun(ctx context.Context, in engine.Input, digest, instrument string) (engine.Result, int64) {
	result := engine.Run(in)

	slog.InfoContext(ctx, "Run computed",
		log.FieldOperation, log.OpCompute,
		log.FieldDigest, digest,
		log.FieldTransactions, len(result.Outcome.Valid),
		log.FieldRejected, len(result.Outcome.Invalid),
		log.FieldDuplicates, len(result.Outcome.Duplicates),
		log.FieldWindows, len(result.Windows))

	id := s.recordRun(ctx, digest, instrument, result)
	return result, id
}

// ValidateBatch screens a batch under the strict profile without running the
// rule steps. Nothing is recorded.
func (s *RunService) ValidateBatch(records []engine.RawTransaction) engine.Outcome {
	return engine.Validate(records, engine.ProfileStrict)
}

// ListRecentRuns returns the newest recorded runs, up to limit.
func (s *RunService) ListRecentRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	if s.storage == nil {
		return nil, nil
	}
	return s.storage.ListRecent(ctx, limit)
}

// Ready reports whether the backing store is reachable.
func (s *RunService) Ready(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Ping(ctx)
}

func (s *RunService) recordRun(ctx context.Context, digest, instrument string, res engine.Result) int64 {
	if s.storage == nil {
		return 0
	}

	id, err := s.storage.CreateRun(ctx, storage.Run{
		Digest:        digest,
		Instrument:    instrument,
		Accepted:      int64(len(res.Outcome.Valid)),
		Rejected:      int64(len(res.Outcome.Invalid)),
		Duplicates:    int64(len(res.Outcome.Duplicates)),
		Windows:       int64(len(res.Windows)),
		AmountPaise:   int64(res.Totals.Amount),
		CeilingPaise:  int64(res.Totals.Ceiling),
		RemanentPaise: int64(res.Totals.Remanent),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record run",
			log.FieldDigest, digest, log.FieldError, err)
		return 0
	}

	// Announce async; the run is already stored and the sweep picks up
	// whatever the broker drops.
	if err := s.publishRunRecorded(ctx, id, digest); err != nil {
		slog.ErrorContext(ctx, "Failed to publish run recorded message",
			log.FieldRunID, id, log.FieldError, err)
	}

	return id
}

func (s *RunService) publishRunRecorded(ctx context.Context, id int64, digest string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping run message")
		return nil
	}
	return s.amqpClient.PublishRunRecorded(ctx, id, digest)
}

// Close closes both storage and AMQP connections.
func (s *RunService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close run service: %v", errs)
	}

	return nil
}

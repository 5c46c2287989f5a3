package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atom19-i/superannuation/internal/core"
	"github.com/atom19-i/superannuation/internal/engine"
	"github.com/atom19-i/superannuation/internal/storage"
)

func newTestService(t *testing.T) (*RunService, *storage.RunRepository) {
	t.Helper()
	repo, err := storage.NewRunRepository(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewRunService(repo, nil), repo
}

func mustInstant(t *testing.T, text string) core.Instant {
	t.Helper()
	at, err := core.ParseTimestamp(text, "timestamp")
	require.NoError(t, err)
	return at
}

func TestComputeRun_RecordsSummary(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	in := engine.Input{
		Transactions: []engine.RawTransaction{
			{Timestamp: "2023-04-10 09:00:00", Amount: "250.00", Pos: 0},
			{Timestamp: "2023-04-10 09:00:00", Amount: "250.00", Pos: 1},
			{Timestamp: "2023-05-02 18:30:00", Amount: "bogus", Pos: 2},
		},
		Windows: []core.SavingsWindow{{
			ID:    "all",
			Start: mustInstant(t, "2023-01-01 00:00:00"),
			End:   mustInstant(t, "2023-12-31 23:59:59"),
		}},
		Profile: engine.ProfileFilter,
	}

	result, id := svc.ComputeRun(ctx, in, "digest-1", "")
	require.Positive(t, id)

	require.Len(t, result.Outcome.Valid, 1)
	require.Len(t, result.Outcome.Invalid, 1)
	require.Len(t, result.Outcome.Duplicates, 1)
	assert.Equal(t, core.Paise(5000), result.Totals.Remanent)

	run, err := repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "digest-1", run.Digest)
	assert.Equal(t, int64(1), run.Accepted)
	assert.Equal(t, int64(1), run.Rejected)
	assert.Equal(t, int64(1), run.Duplicates)
	assert.Equal(t, int64(1), run.Windows)
	assert.Equal(t, int64(25000), run.AmountPaise)
	assert.Equal(t, int64(30000), run.CeilingPaise)
	assert.Equal(t, int64(5000), run.RemanentPaise)
}

func TestComputeRun_WithoutStorage(t *testing.T) {
	svc := NewRunService(nil, nil)

	result, id := svc.ComputeRun(context.Background(), engine.Input{
		Transactions: []engine.RawTransaction{
			{Timestamp: "2023-04-10 09:00:00", Amount: "620.00", Pos: 0},
		},
	}, "digest-2", "")

	assert.Zero(t, id, "no storage means no run ID")
	require.Len(t, result.Outcome.Valid, 1)
	assert.Equal(t, core.Paise(8000), result.Totals.Remanent)
}

func TestValidateBatch_Strict(t *testing.T) {
	svc := NewRunService(nil, nil)

	out := svc.ValidateBatch([]engine.RawTransaction{
		{Timestamp: "2023-04-10 09:00:00", Amount: "250.00", Remanent: "50.00", Pos: 0},
		{Timestamp: "2023-05-02 18:30:00", Amount: "250.00", Remanent: "49.00", Pos: 1},
	})

	require.Len(t, out.Valid, 1)
	require.Len(t, out.Invalid, 1)
	assert.Equal(t, core.RejectMismatch, out.Invalid[0].Code)
}

func TestListRecentRuns(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.ComputeRun(ctx, engine.Input{}, "d1", "")
	svc.ComputeRun(ctx, engine.Input{}, "d2", "")

	runs, err := svc.ListRecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "d2", runs[0].Digest, "newest first")
}

func TestReady(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.Ready(context.Background()))
	assert.NoError(t, NewRunService(nil, nil).Ready(context.Background()))
}

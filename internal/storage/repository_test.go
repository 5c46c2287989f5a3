package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	repo, err := NewRunRepository(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRunLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateRun(ctx, Run{
		Digest:        "abc123",
		Instrument:    "ppf",
		Accepted:      4,
		Rejected:      1,
		Duplicates:    0,
		Windows:       2,
		AmountPaise:   172500,
		CeilingPaise:  190000,
		RemanentPaise: 14500,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	run, err := repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "abc123", run.Digest)
	assert.Equal(t, int64(14500), run.RemanentPaise)
	assert.False(t, run.ExportedAt.Valid)
	assert.False(t, run.CreatedAt.IsZero())

	pending, err := repo.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkExported(ctx, id))

	pending, err = repo.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	run, err = repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.True(t, run.ExportedAt.Valid)
}

func TestGetRunNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetRun(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, repo.MarkExported(context.Background(), 42), ErrRunNotFound)
}

func TestListRecentOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.CreateRun(ctx, Run{Digest: "d", Instrument: "index"})
		require.NoError(t, err)
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID, "newest first")
}

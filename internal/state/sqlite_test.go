package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/driftnet/internal/testutil"
	"github.com/leapstack-labs/driftnet/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(context.Background(), ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"check_runs", "drift_records", "extract_runs"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".driftnet", "state.db")
	ctx := context.Background()

	store, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordExtract(ctx, &ExtractRun{OutputPath: "c.yaml"}))
	require.NoError(t, store.Close())

	// Reopening runs no migrations twice and keeps the data.
	store, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runs, err := store.ListExtracts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, path, store.Path())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.Error(t, store.RecordCheck(ctx, &CheckRun{}, nil))
	_, err := store.ListChecks(ctx, 1)
	assert.Error(t, err)
	assert.Error(t, store.RecordExtract(ctx, &ExtractRun{}))
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_CheckRunLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	drifts := []core.Drift{
		{Kind: core.DriftMissing, Source: "t", Column: "b", Lines: []int{2, 2}, Message: "missing b"},
		{Kind: core.DriftAdded, Source: "t", Column: "new_col", Lines: nil, Message: "new new_col"},
	}
	run := &CheckRun{
		ContractPath: "contract.yaml",
		Actual:       "actual.yaml",
		Missing:      1,
		Added:        1,
		Skipped:      2,
		Failed:       true,
	}
	require.NoError(t, store.RecordCheck(ctx, run, drifts))
	require.NotEmpty(t, run.ID)
	require.False(t, run.StartedAt.IsZero())

	got, err := store.GetCheck(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ContractPath, got.ContractPath)
	assert.Equal(t, run.Actual, got.Actual)
	assert.False(t, got.Live)
	assert.Equal(t, 1, got.Missing)
	assert.Equal(t, 1, got.Added)
	assert.Equal(t, 2, got.Skipped)
	assert.True(t, got.Failed)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)

	records, err := store.GetCheckDrifts(ctx, run.ID[:8])
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, drifts[0], records[0])
	assert.Equal(t, core.DriftAdded, records[1].Kind)
	assert.Equal(t, []int{}, records[1].Lines)
}

func TestSQLiteStore_GetCheckNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetCheck(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSQLiteStore_GetCheckAmbiguousPrefix(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordCheck(ctx, &CheckRun{ID: "abc-1"}, nil))
	require.NoError(t, store.RecordCheck(ctx, &CheckRun{ID: "abc-2"}, nil))

	_, err := store.GetCheck(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	got, err := store.GetCheck(ctx, "abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-2", got.ID)
}

func TestSQLiteStore_ListChecksNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		run := &CheckRun{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.RecordCheck(ctx, run, nil))
	}

	runs, err := store.ListChecks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "second", runs[1].ID)
}

func TestSQLiteStore_ExtractRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := &ExtractRun{OutputPath: "driftnet-contract.yaml", FilesScanned: 3, FilesSkipped: 1, Sources: 2, Columns: 7}
	require.NoError(t, store.RecordExtract(ctx, run))

	runs, err := store.ListExtracts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 3, runs[0].FilesScanned)
	assert.Equal(t, 1, runs[0].FilesSkipped)
	assert.Equal(t, 2, runs[0].Sources)
	assert.Equal(t, 7, runs[0].Columns)
}

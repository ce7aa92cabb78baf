package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	first := RunSummary{
		ActivityID:     uuid.New(),
		Mode:           "pedestal",
		Cycles:         5,
		Records:        1000,
		SkippedRecords: 2,
		FinishedAt:     time.Unix(0, 1000),
	}
	second := RunSummary{
		ActivityID: uuid.New(),
		Mode:       "physics",
		Cycles:     3,
		Records:    600,
		FinishedAt: time.Unix(0, 2000),
	}
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, second.ActivityID, got[0].ActivityID)
	assert.Equal(t, "physics", got[0].Mode)
	assert.Equal(t, first.ActivityID, got[1].ActivityID)
	assert.Equal(t, int64(2), got[1].SkippedRecords)
	assert.Equal(t, int64(1000), got[1].FinishedAt.UnixNano())
}

func TestRecentLimit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, RunSummary{
			ActivityID: uuid.New(),
			Mode:       "physics",
			FinishedAt: time.Unix(int64(i), 0),
		}))
	}
	got, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].FinishedAt.Unix())
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.sqlite")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), RunSummary{ActivityID: uuid.New(), Mode: "LED"}))
	require.NoError(t, store.Close())

	// Reopen runs migrations again; ErrNoChange must be tolerated.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

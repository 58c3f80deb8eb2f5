package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Record{
			BuildID:   string(rune('a' + i)),
			Trigger:   "watch",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  150 * time.Millisecond,
			Pages:     10 + i,
		}))
	}

	records, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "c", records[0].BuildID) // newest first
	require.Equal(t, "b", records[1].BuildID)
	require.Equal(t, 12, records[0].Pages)
	require.Equal(t, base.Add(2*time.Minute), records[0].StartedAt)
	require.Equal(t, 150*time.Millisecond, records[0].Duration)
}

func TestRecentEmpty(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), Record{
		BuildID: "abc", Trigger: "cli", StartedAt: time.Now(), Pages: 5,
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "abc", records[0].BuildID)
}

func TestAppendRecordsFailure(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(context.Background(), Record{
		BuildID: "x", Trigger: "watch", StartedAt: time.Now(), Err: "theme missing",
	}))
	records, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "theme missing", records[0].Err)
}

package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/setsync/internal/clock"
)

func openMemory(t *testing.T, clk clock.Clock) *Store {
	t.Helper()
	opts := DefaultOptions(":memory:")
	opts.Clock = clk
	s, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndLatest(t *testing.T) {
	s := openMemory(t, nil)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := uuid.NewString()
	require.NoError(t, s.RecordPass(ctx, []Record{
		{PassID: first, Source: "v4", StartedAt: start, Duration: time.Second, Entries: 10, Result: "applied"},
		{PassID: first, Source: "v6", StartedAt: start, Duration: time.Second, Result: "failed", Error: "fetch: refused"},
	}))
	second := uuid.NewString()
	require.NoError(t, s.RecordPass(ctx, []Record{
		{PassID: second, Source: "v4", StartedAt: start.Add(time.Hour), Duration: 2 * time.Second, Result: "unchanged"},
	}))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	assert.Equal(t, "v4", latest[0].Source)
	assert.Equal(t, second, latest[0].PassID)
	assert.Equal(t, "unchanged", latest[0].Result)
	assert.True(t, latest[0].StartedAt.Equal(start.Add(time.Hour)))
	assert.Equal(t, 2*time.Second, latest[0].Duration)

	assert.Equal(t, "v6", latest[1].Source)
	assert.Equal(t, "fetch: refused", latest[1].Error)
}

func TestStore_History(t *testing.T) {
	s := openMemory(t, nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordPass(ctx, []Record{{PassID: uuid.NewString(), Source: "v4", Entries: i, Result: "applied"}}))
	}

	hist, err := s.History(ctx, "v4", 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, 4, hist[0].Entries)
	assert.Equal(t, 2, hist[2].Entries)

	all, err := s.History(ctx, "v4", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStore_Prune(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	s := openMemory(t, clock.NewMockClock(now))
	ctx := context.Background()

	require.NoError(t, s.RecordPass(ctx, []Record{
		{PassID: "a", Source: "v4", StartedAt: now.Add(-48 * time.Hour), Result: "applied"},
		{PassID: "b", Source: "v4", StartedAt: now.Add(-time.Hour), Result: "applied"},
	}))

	n, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	hist, err := s.History(ctx, "v4", 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "b", hist[0].PassID)
}

func TestStore_FileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(DefaultOptions(path))
	require.NoError(t, err)
	require.NoError(t, s.RecordPass(ctx, []Record{{PassID: "x", Source: "v4", Result: "applied"}}))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Latest(ctx)
	assert.ErrorIs(t, err, ErrClosed)

	s2, err := Open(DefaultOptions(path))
	require.NoError(t, err)
	defer s2.Close()
	latest, err := s2.Latest(ctx)
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}

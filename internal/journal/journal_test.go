package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "data", "subpilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, Entry{RunID: "run-1", Action: ActionWeeklyPost, Title: "Free Session Friday", Success: true, CreatedAt: base}))
	require.NoError(t, j.Record(ctx, Entry{RunID: "run-1", Action: ActionPin, Success: false, Error: "menu not found", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, j.Record(ctx, Entry{RunID: "run-1", Action: ActionReply, Target: "https://www.reddit.com/r/x/comments/1", Success: true, CreatedAt: base.Add(2 * time.Minute)}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, ActionReply, entries[0].Action)
	assert.Equal(t, ActionPin, entries[1].Action)
	assert.False(t, entries[1].Success)
	assert.Equal(t, "menu not found", entries[1].Error)
	assert.Equal(t, "Free Session Friday", entries[2].Title)
	assert.NotEmpty(t, entries[2].ID)
	assert.True(t, entries[2].CreatedAt.Equal(base))

	limited, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ActionReply, limited[0].Action)
}

func TestRunSummary(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	require.NoError(t, j.Record(ctx, Entry{RunID: "a", Action: ActionDailyPost, Success: true}))
	require.NoError(t, j.Record(ctx, Entry{RunID: "a", Action: ActionReply, Success: false}))
	require.NoError(t, j.Record(ctx, Entry{RunID: "a", Action: ActionReply, Success: true}))
	require.NoError(t, j.Record(ctx, Entry{RunID: "b", Action: ActionReply, Success: true}))

	ok, failed, err := j.RunSummary(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)

	ok, failed, err = j.RunSummary(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, ok)
	assert.Zero(t, failed)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subpilot.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, Entry{RunID: "r", Action: ActionDailyPost, Success: true}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	assert.Equal(t, path, j.Path())

	entries, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

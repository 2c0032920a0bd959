package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subpilot/internal/config"
	"subpilot/internal/journal"
	"subpilot/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir         string
	statePath   string
	journalPath string
	configPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, key := range []string{"REDDIT_USERNAME", "REDDIT_PASSWORD", "PACKETSTREAM_PROXY", "SUBPILOT_SUBREDDIT", "SUBPILOT_STATE", "SUBPILOT_HEADLESS"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	env := &testEnv{
		dir:         dir,
		statePath:   filepath.Join(dir, "state.json"),
		journalPath: filepath.Join(dir, "subpilot.db"),
		configPath:  filepath.Join(dir, "subpilot.yaml"),
	}

	cfg := config.DefaultConfig()
	cfg.Storage.StatePath = env.statePath
	cfg.Storage.JournalPath = env.journalPath
	cfg.Logging.File = filepath.Join(dir, "subpilot.log")
	require.NoError(t, cfg.Save(env.configPath))
	return env
}

// execute runs the root command with fresh flag values.
func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, dryRun, catalogPath = false, false, ""
	previewKind, previewDay, previewRaw = "daily", "", false
	statusLimit = 10

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.configPath, "--env-file", filepath.Join(e.dir, ".env")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRoot_DryRunHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.execute(t, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "done:")
	assert.False(t, exists(env.statePath))
	assert.False(t, exists(env.journalPath))
}

func TestRoot_MissingCredentials(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.execute(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingCredentials))
	assert.False(t, exists(env.statePath))
	assert.False(t, exists(env.journalPath))
}

func TestRoot_AlreadyRanTodaySkipsWithoutBrowser(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("REDDIT_USERNAME", "bot")
	t.Setenv("REDDIT_PASSWORD", "pw")

	st := &state.RunState{}
	st.RecordRun(time.Now(), 1, nil)
	require.NoError(t, state.NewStore(env.statePath).Save(st))

	out, err := env.execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped_duplicate:")
}

func TestRoot_DotenvSuppliesCredentials(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Unsetenv("REDDIT_USERNAME"))
	require.NoError(t, os.Unsetenv("REDDIT_PASSWORD"))
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, ".env"), []byte("REDDIT_USERNAME=bot\nREDDIT_PASSWORD=pw\n"), 0o600))

	st := &state.RunState{}
	st.RecordRun(time.Now(), 0, nil)
	require.NoError(t, state.NewStore(env.statePath).Save(st))

	out, err := env.execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped_duplicate:")
}

func TestPreview_Raw(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"question", []string{"--kind", "question"}, []string{"# Question of the Day:", "type: question", "flair: Discussion"}},
		{"weekly friday", []string{"--kind", "weekly", "--day", "friday"}, []string{"# Free Session Friday", "pinned"}},
		{"weekly default", []string{"--kind", "weekly"}, []string{"# Weekly Manifestation Thread"}},
		{"reply", []string{"--kind", "reply"}, []string{"> "}},
		{"any daily", nil, []string{"# ", "type: "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			out, err := env.execute(t, append([]string{"preview", "--raw"}, tt.args...)...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "{{")
		})
	}
}

func TestPreview_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.execute(t, "preview", "--kind", "meme")
	assert.Error(t, err)

	_, err = env.execute(t, "preview", "--kind", "weekly", "--day", "tuesday")
	assert.Error(t, err)
}

func TestPreview_Rendered(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.execute(t, "preview", "--kind", "feature_highlight")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestStatus_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "No activity recorded yet.")
	assert.False(t, exists(env.journalPath), "status must not create the journal")
}

func TestStatus_ShowsStateAndJournal(t *testing.T) {
	env := newTestEnv(t)

	st := &state.RunState{}
	st.RecordRun(time.Now(), 2, []string{"friday"})
	require.NoError(t, state.NewStore(env.statePath).Save(st))

	j, err := journal.Open(env.journalPath)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), journal.Entry{
		RunID: "run-1", Action: journal.ActionWeeklyPost, Title: "Free Session Friday", Success: true,
	}))
	require.NoError(t, j.Record(context.Background(), journal.Entry{
		RunID: "run-1", Action: journal.ActionReply, Title: "Love this!", Error: "reply failed: reply button",
	}))
	require.NoError(t, j.Close())

	out, err := env.execute(t, "status", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, st.LastRun)
	assert.Contains(t, out, "Weekly friday")
	assert.Contains(t, out, "weekly_post")
	assert.Contains(t, out, "Free Session Friday")
	assert.Contains(t, out, "failed: reply failed")
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subpilot/internal/pacing"
	"subpilot/internal/routine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDDIT_USERNAME", "REDDIT_PASSWORD", "PACKETSTREAM_PROXY",
		"SUBPILOT_SUBREDDIT", "SUBPILOT_STATE", "SUBPILOT_HEADLESS",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Hypnotheraai", cfg.Community.Subreddit)
	assert.Equal(t, "community_manager_state.json", cfg.Storage.StatePath)
	assert.Equal(t, 3, cfg.Schedule.MaxReplies)
	assert.False(t, cfg.Browser.Headless)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfig_MatchesRoutineDefaults(t *testing.T) {
	assert.Equal(t, routine.DefaultSchedule(), DefaultConfig().RoutineSchedule())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "subpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
community:
  subreddit: MyProduct
schedule:
  max_replies: 5
  reply_wait_min: 30s
browser:
  headless: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "MyProduct", cfg.Community.Subreddit)
	assert.Equal(t, 5, cfg.Schedule.MaxReplies)
	assert.Equal(t, pacing.Between(30*time.Second, 180*time.Second), cfg.GetReplyWait())
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 12, cfg.Schedule.WeeklyCutoffHour)
	assert.Equal(t, "subpilot.db", cfg.Storage.JournalPath)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("community: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "subpilot.yaml")

	cfg := DefaultConfig()
	cfg.Community.Subreddit = "Other"
	cfg.Account.Username = "bot"
	cfg.Account.Password = "secret"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Other", loaded.Community.Subreddit)
	assert.Equal(t, "bot", loaded.Account.Username)
	assert.Empty(t, loaded.Account.Password)
	assert.Equal(t, "secret", cfg.Account.Password, "Save must not mutate the receiver")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty subreddit", func(c *Config) { c.Community.Subreddit = " " }},
		{"cutoff out of range", func(c *Config) { c.Schedule.WeeklyCutoffHour = 25 }},
		{"negative afternoon", func(c *Config) { c.Schedule.AfternoonHour = -1 }},
		{"negative replies", func(c *Config) { c.Schedule.MaxReplies = -1 }},
		{"bad duration", func(c *Config) { c.Schedule.PostCooldownMin = "soon" }},
		{"inverted range", func(c *Config) { c.Schedule.ReplyWaitMin = "10m" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_CheckCredentials(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.CheckCredentials()
	require.True(t, errors.Is(err, ErrMissingCredentials))
	assert.Contains(t, err.Error(), "REDDIT_USERNAME")
	assert.Contains(t, err.Error(), "REDDIT_PASSWORD")

	cfg.Account.Username = "bot"
	err = cfg.CheckCredentials()
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.NotContains(t, err.Error(), "REDDIT_USERNAME")

	cfg.Account.Password = "pw"
	assert.NoError(t, cfg.CheckCredentials())
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schedule.PostCooldownMin = "garbage"
	cfg.Schedule.ReplyWaitMax = ""

	assert.Equal(t, pacing.Between(5*time.Minute, 10*time.Minute), cfg.GetPostCooldown())
	assert.Equal(t, pacing.Between(60*time.Second, 180*time.Second), cfg.GetReplyWait())
}

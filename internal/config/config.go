package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"subpilot/internal/browser"
	"subpilot/internal/pacing"
	"subpilot/internal/routine"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials means the account username or password is not set.
var ErrMissingCredentials = errors.New("missing account credentials")

// Config holds all subpilot configuration.
type Config struct {
	// Target community
	Community CommunityConfig `yaml:"community"`

	// Bot account. Prefer REDDIT_USERNAME / REDDIT_PASSWORD over the file.
	Account AccountConfig `yaml:"account"`

	// Browser session
	Browser browser.Config `yaml:"browser"`

	// Posting and reply schedule
	Schedule ScheduleConfig `yaml:"schedule"`

	// Files
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CommunityConfig names the subreddit and the content catalog.
type CommunityConfig struct {
	Subreddit string `yaml:"subreddit"`
	BaseURL   string `yaml:"base_url"`
	Catalog   string `yaml:"catalog"` // empty = embedded catalog
}

// AccountConfig holds the bot account credentials.
type AccountConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
}

// ScheduleConfig configures the daily routine. Durations are Go duration
// strings ("5m", "90s").
type ScheduleConfig struct {
	WeeklyCutoffHour int    `yaml:"weekly_cutoff_hour"`
	AfternoonHour    int    `yaml:"afternoon_hour"`
	PostCooldownMin  string `yaml:"post_cooldown_min"`
	PostCooldownMax  string `yaml:"post_cooldown_max"`
	ReplyWaitMin     string `yaml:"reply_wait_min"`
	ReplyWaitMax     string `yaml:"reply_wait_max"`
	MaxReplies       int    `yaml:"max_replies"`
	MaxPostsScanned  int    `yaml:"max_posts_scanned"`
}

// StorageConfig locates the state file and the activity journal.
type StorageConfig struct {
	StatePath   string `yaml:"state_path"`
	JournalPath string `yaml:"journal_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Community: CommunityConfig{
			Subreddit: "Hypnotheraai",
			BaseURL:   "https://www.reddit.com",
		},

		Browser: browser.DefaultConfig(),

		Schedule: ScheduleConfig{
			WeeklyCutoffHour: 12,
			AfternoonHour:    14,
			PostCooldownMin:  "5m",
			PostCooldownMax:  "10m",
			ReplyWaitMin:     "60s",
			ReplyWaitMax:     "180s",
			MaxReplies:       3,
			MaxPostsScanned:  10,
		},

		Storage: StorageConfig{
			StatePath:   "community_manager_state.json",
			JournalPath: "subpilot.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "subpilot.log",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file, or an empty path, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file. The password is never written.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.Account.Password = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REDDIT_USERNAME"); v != "" {
		c.Account.Username = v
	}
	if v := os.Getenv("REDDIT_PASSWORD"); v != "" {
		c.Account.Password = v
	}
	if v := os.Getenv("PACKETSTREAM_PROXY"); v != "" {
		c.Browser.Proxy = v
	}
	if v := os.Getenv("SUBPILOT_SUBREDDIT"); v != "" {
		c.Community.Subreddit = strings.TrimPrefix(v, "r/")
	}
	if v := os.Getenv("SUBPILOT_STATE"); v != "" {
		c.Storage.StatePath = v
	}
	if v := os.Getenv("SUBPILOT_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = b
		}
	}
}

// Validate checks everything except credentials, which a dry run does not
// need. See CheckCredentials.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Community.Subreddit) == "" {
		errs = append(errs, errors.New("community.subreddit is empty"))
	}
	s := c.Schedule
	if s.WeeklyCutoffHour < 0 || s.WeeklyCutoffHour > 24 {
		errs = append(errs, fmt.Errorf("schedule.weekly_cutoff_hour %d out of range 0-24", s.WeeklyCutoffHour))
	}
	if s.AfternoonHour < 0 || s.AfternoonHour > 24 {
		errs = append(errs, fmt.Errorf("schedule.afternoon_hour %d out of range 0-24", s.AfternoonHour))
	}
	if s.MaxReplies < 0 {
		errs = append(errs, fmt.Errorf("schedule.max_replies must not be negative"))
	}
	if s.MaxPostsScanned < 0 {
		errs = append(errs, fmt.Errorf("schedule.max_posts_scanned must not be negative"))
	}
	for _, r := range []struct{ name, min, max string }{
		{"post_cooldown", s.PostCooldownMin, s.PostCooldownMax},
		{"reply_wait", s.ReplyWaitMin, s.ReplyWaitMax},
	} {
		if err := checkRange(r.min, r.max); err != nil {
			errs = append(errs, fmt.Errorf("schedule.%s: %w", r.name, err))
		}
	}
	return errors.Join(errs...)
}

func checkRange(min, max string) error {
	lo, err := time.ParseDuration(min)
	if err != nil {
		return fmt.Errorf("invalid min %q", min)
	}
	hi, err := time.ParseDuration(max)
	if err != nil {
		return fmt.Errorf("invalid max %q", max)
	}
	if lo > hi {
		return fmt.Errorf("min %s exceeds max %s", lo, hi)
	}
	return nil
}

// CheckCredentials returns ErrMissingCredentials naming the unset variables.
func (c *Config) CheckCredentials() error {
	var missing []string
	if c.Account.Username == "" {
		missing = append(missing, "REDDIT_USERNAME")
	}
	if c.Account.Password == "" {
		missing = append(missing, "REDDIT_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (set %s)", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// GetPostCooldown returns the wait after each weekly post.
func (c *Config) GetPostCooldown() pacing.Range {
	return pacing.Between(
		parseDuration(c.Schedule.PostCooldownMin, 5*time.Minute),
		parseDuration(c.Schedule.PostCooldownMax, 10*time.Minute),
	)
}

// GetReplyWait returns the wait between successive replies.
func (c *Config) GetReplyWait() pacing.Range {
	return pacing.Between(
		parseDuration(c.Schedule.ReplyWaitMin, 60*time.Second),
		parseDuration(c.Schedule.ReplyWaitMax, 180*time.Second),
	)
}

// RoutineSchedule converts the schedule section for the routine controller.
func (c *Config) RoutineSchedule() routine.Schedule {
	return routine.Schedule{
		WeeklyCutoffHour: c.Schedule.WeeklyCutoffHour,
		AfternoonHour:    c.Schedule.AfternoonHour,
		PostCooldown:     c.GetPostCooldown(),
		ReplyWait:        c.GetReplyWait(),
		MaxReplies:       c.Schedule.MaxReplies,
		MaxPostsScanned:  c.Schedule.MaxPostsScanned,
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

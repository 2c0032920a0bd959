package routine

import (
	"context"
	"io"
	"strings"
	"time"

	"subpilot/internal/content"
	"subpilot/internal/journal"
	"subpilot/internal/pacing"
	"subpilot/internal/reddit"
)

// Phase is a step of one routine invocation.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseCheckedState     Phase = "checked_state"
	PhaseSkippedDuplicate Phase = "skipped_duplicate" // already ran today
	PhaseLoggedIn         Phase = "logged_in"
	PhaseWeeklyPosted     Phase = "weekly_posted" // weekly step finished, 0..n posts
	PhaseDailyPosted      Phase = "daily_posted"
	PhaseRepliesAttempted Phase = "replies_attempted"
	PhaseStatePersisted   Phase = "state_persisted"
	PhaseDone             Phase = "done"
	PhaseFailed           Phase = "failed"
)

// Community is the set of site actions the routine drives.
// *reddit.Client implements it.
type Community interface {
	Login(ctx context.Context, username, password string) error
	SubmitPost(ctx context.Context, post content.CommunityPost) (string, error)
	PinCurrentPost(ctx context.Context) error
	RecentPosts(ctx context.Context, limit int) ([]string, error)
	Comments(ctx context.Context, postURL string) ([]reddit.Comment, error)
	Reply(ctx context.Context, cm reddit.Comment, text string) error
}

// SessionOpener acquires a browser session and the Community bound to it.
// The closer releases the session.
type SessionOpener func(ctx context.Context) (Community, io.Closer, error)

// Recorder stores activity entries. *journal.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Schedule holds the time-of-day rules and bounds of the routine.
type Schedule struct {
	WeeklyCutoffHour int          `yaml:"weekly_cutoff_hour"` // weekly threads only before this hour
	AfternoonHour    int          `yaml:"afternoon_hour"`     // daily post always runs from this hour
	PostCooldown     pacing.Range `yaml:"post_cooldown"`
	ReplyWait        pacing.Range `yaml:"reply_wait"`
	MaxReplies       int          `yaml:"max_replies"`
	MaxPostsScanned  int          `yaml:"max_posts_scanned"`
}

// DefaultSchedule returns the schedule the community has always run on.
func DefaultSchedule() Schedule {
	return Schedule{
		WeeklyCutoffHour: 12,
		AfternoonHour:    14,
		PostCooldown:     pacing.Between(5*time.Minute, 10*time.Minute),
		ReplyWait:        pacing.Between(60*time.Second, 180*time.Second),
		MaxReplies:       3,
		MaxPostsScanned:  10,
	}
}

// Result summarizes one invocation.
type Result struct {
	RunID            string
	Phase            Phase
	PostsMade        int
	WeeklyDays       []string
	RepliesAttempted int
	RepliesMade      int
	DryRun           bool
}

// Eligible reports whether cm may receive a reply from account: it must have
// a known author other than account and no replies yet.
func Eligible(cm reddit.Comment, account string) bool {
	author := normalizeAccount(cm.Author)
	if author == "" || cm.HasReplies {
		return false
	}
	return author != normalizeAccount(account)
}

func normalizeAccount(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/")
	if len(name) >= 2 && strings.EqualFold(name[:2], "u/") {
		name = name[2:]
	}
	return strings.ToLower(name)
}

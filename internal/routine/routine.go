// Package routine runs the once-a-day community routine: weekly thread,
// daily post, a few comment replies, then the last-run marker.
package routine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subpilot/internal/content"
	"subpilot/internal/generator"
	"subpilot/internal/journal"
	"subpilot/internal/pacing"
	"subpilot/internal/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a Controller.
type Options struct {
	Open      SessionOpener
	Store     *state.Store
	Catalog   *content.Catalog
	Generator *generator.Generator
	Pacer     *pacing.Pacer
	Journal   Recorder // optional
	Clock     func() time.Time
	Schedule  Schedule
	Username  string
	Password  string
	DryRun    bool
	Logger    *zap.Logger
}

// Controller executes the daily routine.
type Controller struct {
	opts   Options
	logger *zap.Logger
	runID  string
	phase  Phase
}

// New validates opts and returns a Controller.
func New(opts Options) (*Controller, error) {
	if opts.Store == nil && !opts.DryRun {
		return nil, errors.New("routine: state store is required")
	}
	if opts.Open == nil && !opts.DryRun {
		return nil, errors.New("routine: session opener is required")
	}
	if opts.Catalog == nil || opts.Generator == nil {
		return nil, errors.New("routine: catalog and generator are required")
	}
	if opts.Pacer == nil {
		return nil, errors.New("routine: pacer is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Schedule == (Schedule{}) {
		opts.Schedule = DefaultSchedule()
	}
	return &Controller{opts: opts, logger: opts.Logger.Named("routine"), phase: PhaseIdle}, nil
}

// Run executes one invocation. Only a failed session, a failed login or a
// cancelled ctx return an error; individual post and reply failures are
// logged and the routine continues.
func (c *Controller) Run(ctx context.Context) (res Result, err error) {
	c.runID = uuid.NewString()
	c.phase = PhaseIdle
	c.logger = c.opts.Logger.Named("routine").With(zap.String("run_id", c.runID))

	res = Result{RunID: c.runID, DryRun: c.opts.DryRun}
	defer func() { res.Phase = c.phase }()

	c.logger.Info("Starting daily routine", zap.Bool("dry_run", c.opts.DryRun))

	st := c.loadState()
	c.transition(PhaseCheckedState)

	now := c.opts.Clock()
	if !c.opts.DryRun && st.RanOn(now) {
		c.logger.Info("Already ran today, skipping", zap.String("last_run", st.LastRun))
		c.transition(PhaseSkippedDuplicate)
		return res, nil
	}

	community, release, err := c.openSession(ctx)
	if err != nil {
		c.transition(PhaseFailed)
		return res, err
	}
	defer func() {
		if cerr := release(); cerr != nil {
			c.logger.Warn("Failed to release browser session", zap.Error(cerr))
		}
	}()

	if err := community.Login(ctx, c.opts.Username, c.opts.Password); err != nil {
		c.logger.Error("Login failed, aborting routine", zap.Error(err))
		c.transition(PhaseFailed)
		return res, err
	}
	c.transition(PhaseLoggedIn)

	weeklyPosted, err := c.postWeekly(ctx, community, now, &res)
	if err != nil {
		return res, c.abort(err)
	}
	c.transition(PhaseWeeklyPosted)

	if weeklyPosted == 0 || now.Hour() >= c.opts.Schedule.AfternoonHour {
		if err := c.postDaily(ctx, community, &res); err != nil {
			return res, c.abort(err)
		}
		c.transition(PhaseDailyPosted)
	}

	if err := c.replyToComments(ctx, community, &res); err != nil {
		return res, c.abort(err)
	}
	c.transition(PhaseRepliesAttempted)

	if c.opts.DryRun {
		c.logger.Info("[DRY RUN] Would save state",
			zap.String("last_run", now.Format(state.DateLayout)),
			zap.Int("posts_made", res.PostsMade),
			zap.Strings("weekly_threads", res.WeeklyDays))
	} else {
		st.RecordRun(now, res.PostsMade, res.WeeklyDays)
		if err := c.opts.Store.Save(st); err != nil {
			c.logger.Error("Failed to save state", zap.Error(err))
		} else {
			c.transition(PhaseStatePersisted)
		}
	}

	c.transition(PhaseDone)
	c.logger.Info("Daily routine completed",
		zap.Int("posts_made", res.PostsMade),
		zap.Int("replies_attempted", res.RepliesAttempted),
		zap.Int("replies_made", res.RepliesMade))
	return res, nil
}

// Phase returns the phase the last Run reached.
func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) transition(p Phase) {
	c.logger.Debug("Phase transition", zap.String("from", string(c.phase)), zap.String("to", string(p)))
	c.phase = p
}

func (c *Controller) abort(err error) error {
	c.logger.Warn("Routine aborted", zap.Error(err))
	c.transition(PhaseFailed)
	return err
}

func (c *Controller) loadState() *state.RunState {
	if c.opts.Store == nil {
		return &state.RunState{WeeklyThreads: make(map[string]string)}
	}
	st, err := c.opts.Store.Load()
	if err != nil {
		c.logger.Warn("Could not load state, starting fresh", zap.Error(err))
	}
	return st
}

func (c *Controller) openSession(ctx context.Context) (Community, func() error, error) {
	if c.opts.DryRun {
		c.logger.Info("[DRY RUN] Skipping browser session")
		return &dryRunCommunity{logger: c.logger}, func() error { return nil }, nil
	}
	community, closer, err := c.opts.Open(ctx)
	if err != nil {
		c.logger.Error("Failed to open browser session", zap.Error(err))
		return nil, nil, fmt.Errorf("open session: %w", err)
	}
	if closer == nil {
		return community, func() error { return nil }, nil
	}
	return community, closer.Close, nil
}

// postWeekly submits the weekly threads scheduled for now and returns how
// many succeeded.
func (c *Controller) postWeekly(ctx context.Context, community Community, now time.Time, res *Result) (int, error) {
	if now.Hour() >= c.opts.Schedule.WeeklyCutoffHour {
		c.logger.Debug("Past weekly cutoff", zap.Int("hour", now.Hour()))
		return 0, nil
	}

	posted := 0
	for _, spec := range c.opts.Catalog.WeeklyFor(now) {
		post := c.opts.Generator.GenerateWeeklyPost(spec)
		ok, err := c.submit(ctx, community, journal.ActionWeeklyPost, post)
		if err != nil {
			return posted, err
		}
		if ok {
			posted++
			res.PostsMade++
			res.WeeklyDays = append(res.WeeklyDays, spec.Day.String())
		}
		// The cooldown follows every attempt, failed ones included.
		if err := c.wait(ctx, "post cooldown", c.opts.Schedule.PostCooldown); err != nil {
			return posted, err
		}
	}
	return posted, nil
}

func (c *Controller) postDaily(ctx context.Context, community Community, res *Result) error {
	post := c.opts.Generator.GenerateDailyPost()
	ok, err := c.submit(ctx, community, journal.ActionDailyPost, post)
	if err != nil {
		return err
	}
	if ok {
		res.PostsMade++
	}
	return nil
}

// submit posts and, when requested, pins. The bool reports whether the post
// was confirmed; the error is only set when ctx is done.
func (c *Controller) submit(ctx context.Context, community Community, action string, post content.CommunityPost) (bool, error) {
	target, err := community.SubmitPost(ctx, post)
	c.record(ctx, action, post.Title, target, err)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.logger.Error("Post failed", zap.String("action", action), zap.String("title", post.Title), zap.Error(err))
		return false, nil
	}

	if post.Pin {
		err := community.PinCurrentPost(ctx)
		c.record(ctx, journal.ActionPin, post.Title, target, err)
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			c.logger.Warn("Could not pin post", zap.String("title", post.Title), zap.Error(err))
		}
	}
	return true, nil
}

// replyToComments answers up to MaxReplies eligible comments across the most
// recent posts, in listing order.
func (c *Controller) replyToComments(ctx context.Context, community Community, res *Result) error {
	limit := c.opts.Schedule.MaxReplies
	if limit <= 0 {
		return nil
	}

	posts, err := community.RecentPosts(ctx, c.opts.Schedule.MaxPostsScanned)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("Could not list recent posts", zap.Error(err))
		return nil
	}

	for _, postURL := range posts {
		if res.RepliesAttempted >= limit {
			break
		}
		comments, err := community.Comments(ctx, postURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("Could not read comments", zap.String("post", postURL), zap.Error(err))
			continue
		}

		for _, cm := range comments {
			if res.RepliesAttempted >= limit {
				break
			}
			if !Eligible(cm, c.opts.Username) {
				if normalizeAccount(cm.Author) == "" {
					c.logger.Debug("Skipping comment with unknown author", zap.String("post", postURL))
				}
				continue
			}
			if res.RepliesAttempted > 0 {
				if err := c.wait(ctx, "reply wait", c.opts.Schedule.ReplyWait); err != nil {
					return err
				}
			}

			res.RepliesAttempted++
			text := c.opts.Generator.GenerateReply()
			err := community.Reply(ctx, cm, text)
			c.record(ctx, journal.ActionReply, text, postURL, err)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("Reply failed", zap.String("post", postURL), zap.String("author", cm.Author), zap.Error(err))
				continue
			}
			res.RepliesMade++
			c.logger.Info("Replied to comment", zap.String("post", postURL), zap.String("author", cm.Author))
		}
	}
	return nil
}

// wait sleeps a random duration from r. In dry-run mode the duration is only
// logged.
func (c *Controller) wait(ctx context.Context, what string, r pacing.Range) error {
	if c.opts.DryRun {
		c.logger.Info("[DRY RUN] Would wait", zap.String("for", what), zap.Duration("duration", c.opts.Pacer.Draw(r)))
		return ctx.Err()
	}
	d := c.opts.Pacer.Draw(r)
	c.logger.Info("Waiting", zap.String("for", what), zap.Duration("duration", d))
	return c.opts.Pacer.Pause(ctx, d)
}

func (c *Controller) record(ctx context.Context, action, title, target string, actionErr error) {
	if c.opts.DryRun || c.opts.Journal == nil {
		return
	}
	e := journal.Entry{
		RunID:   c.runID,
		Action:  action,
		Title:   title,
		Target:  target,
		Success: actionErr == nil,
	}
	if actionErr != nil {
		e.Error = actionErr.Error()
	}
	if err := c.opts.Journal.Record(context.WithoutCancel(ctx), e); err != nil {
		c.logger.Warn("Could not write journal entry", zap.Error(err))
	}
}

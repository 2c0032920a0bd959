// Package reddit performs the subreddit actions the daily routine needs
// (login, submit, pin, scan comments, reply) through a browser.Session.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subpilot/internal/browser"
	"subpilot/internal/pacing"

	"go.uber.org/zap"
)

// DefaultBaseURL is the site root every path is resolved against.
const DefaultBaseURL = "https://www.reddit.com"

// Selectors used on the site.
const (
	selLoginUsername = "#login-username"
	selLoginPassword = "#login-password"

	selPostTitle   = `[data-testid="post-title-text"]`
	selRichText    = `[data-testid="comment-submission-form-richtext"]`
	selFlairButton = `[data-testid="post-form-flair-button"]`
	selFlairApply  = `[data-testid="flair-selector-apply"]`
	selPostSubmit  = `[data-testid="post-submit-button"]`
	selModMenu     = `[data-testid="moderator-actions-menu"]`

	selPostContainer = `[data-testid="post-container"]`
	selPostLink      = `a[data-click-id="body"]`
	selComment       = `[data-testid="comment"]`
	selCommentAuthor = `[data-testid="comment_author_link"]`
	selCommentThread = `[data-testid="comment-replies"]`
	selReplyButton   = `[data-testid="comment-reply-button"]`
	selReplySubmit   = `[data-testid="comment-submission-form-submit"]`
)

// ErrAuthentication means login did not reach an authenticated page.
var ErrAuthentication = errors.New("authentication failed")

// SubmissionError reports a post, pin or reply that could not be confirmed.
type SubmissionError struct {
	Action string
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Action, e.Reason)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Timing holds the human-pacing intervals between UI steps.
type Timing struct {
	PageLoad    pacing.Range `yaml:"page_load"`
	AfterLogin  pacing.Range `yaml:"after_login"`
	AfterSubmit pacing.Range `yaml:"after_submit"`
	PostPage    pacing.Range `yaml:"post_page"`
	AfterReply  pacing.Range `yaml:"after_reply"`

	CredentialKeys pacing.Range `yaml:"credential_keys"`
	TitleKeys      pacing.Range `yaml:"title_keys"`
	BodyKeys       pacing.Range `yaml:"body_keys"`
	ReplyKeys      pacing.Range `yaml:"reply_keys"`

	PinTimeout time.Duration `yaml:"pin_timeout"`
}

// DefaultTiming returns the pacing the account has always used.
func DefaultTiming() Timing {
	return Timing{
		PageLoad:    pacing.Between(3*time.Second, 6*time.Second),
		AfterLogin:  pacing.Between(5*time.Second, 8*time.Second),
		AfterSubmit: pacing.Between(4*time.Second, 7*time.Second),
		PostPage:    pacing.Between(3*time.Second, 5*time.Second),
		AfterReply:  pacing.Between(3*time.Second, 5*time.Second),

		CredentialKeys: pacing.Between(50*time.Millisecond, 150*time.Millisecond),
		TitleKeys:      pacing.Between(30*time.Millisecond, 100*time.Millisecond),
		BodyKeys:       pacing.Between(10*time.Millisecond, 45*time.Millisecond),
		ReplyKeys:      pacing.Between(30*time.Millisecond, 100*time.Millisecond),

		PinTimeout: 5 * time.Second,
	}
}

// Comment is a comment found on a post page. Handle scopes follow-up
// lookups (reply button, reply box) to this comment.
type Comment struct {
	PostURL    string
	Author     string
	HasReplies bool
	Handle     browser.Element
}

// Client performs site actions against one community.
type Client struct {
	session   browser.Session
	pacer     *pacing.Pacer
	logger    *zap.Logger
	baseURL   string
	community string
	timing    Timing
}

// NewClient returns a client for community. An empty baseURL uses
// DefaultBaseURL.
func NewClient(session browser.Session, pacer *pacing.Pacer, logger *zap.Logger, baseURL, community string, timing Timing) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		session:   session,
		pacer:     pacer,
		logger:    logger,
		baseURL:   strings.TrimRight(baseURL, "/"),
		community: community,
		timing:    timing,
	}
}

// SubmitURL returns the new-post page of the community.
func (c *Client) SubmitURL() string {
	return fmt.Sprintf("%s/r/%s/submit/", c.baseURL, c.community)
}

// NewURL returns the newest-first listing of the community.
func (c *Client) NewURL() string {
	return fmt.Sprintf("%s/r/%s/new/", c.baseURL, c.community)
}

func (c *Client) wait(ctx context.Context, r pacing.Range) error {
	_, err := c.pacer.Wait(ctx, r)
	return err
}

func (c *Client) pause(ctx context.Context, d time.Duration) error {
	return c.pacer.Pause(ctx, d)
}

// absolute resolves a site-relative href.
func (c *Client) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}

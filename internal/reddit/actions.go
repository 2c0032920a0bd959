package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"subpilot/internal/browser"
	"subpilot/internal/content"

	"go.uber.org/zap"
)

// Login signs in with the given credentials. Any failure, including a page
// that never leaves the login form, is reported as ErrAuthentication.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.logger.Info("Logging in") // never log the username

	if err := c.session.Navigate(ctx, c.baseURL+"/login/"); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	if err := c.wait(ctx, c.timing.PageLoad); err != nil {
		return err
	}

	if err := c.session.TypeInto(ctx, selLoginUsername, username, c.timing.CredentialKeys); err != nil {
		return fmt.Errorf("%w: username field: %v", ErrAuthentication, err)
	}
	if err := c.pause(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if err := c.session.TypeInto(ctx, selLoginPassword, password, c.timing.CredentialKeys); err != nil {
		return fmt.Errorf("%w: password field: %v", ErrAuthentication, err)
	}
	if err := c.pause(ctx, time.Second); err != nil {
		return err
	}
	if err := c.session.PressEnter(ctx, selLoginPassword); err != nil {
		return fmt.Errorf("%w: submit: %v", ErrAuthentication, err)
	}
	if err := c.wait(ctx, c.timing.AfterLogin); err != nil {
		return err
	}

	current, err := c.session.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	if !isLoggedIn(current) {
		return fmt.Errorf("%w: still at %s", ErrAuthentication, current)
	}
	c.logger.Info("Login successful")
	return nil
}

func isLoggedIn(current string) bool {
	u, err := url.Parse(current)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	onSite := host == "reddit.com" || strings.HasSuffix(host, ".reddit.com")
	return onSite && !strings.Contains(current, "login")
}

// SubmitPost fills and submits the new-post form and returns the URL of the
// created post. A missing flair is logged and does not fail the submission.
func (c *Client) SubmitPost(ctx context.Context, post content.CommunityPost) (string, error) {
	c.logger.Info("Creating post", zap.String("title", truncate(post.Title, 50)), zap.String("type", string(post.Type)))

	fail := func(reason string, err error) (string, error) {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &SubmissionError{Action: "post", Reason: reason, Err: err}
	}

	if err := c.session.Navigate(ctx, c.SubmitURL()); err != nil {
		return fail("open submit page", err)
	}
	if err := c.wait(ctx, c.timing.PageLoad); err != nil {
		return "", err
	}
	if err := c.session.TypeInto(ctx, selPostTitle, post.Title, c.timing.TitleKeys); err != nil {
		return fail("enter title", err)
	}
	if err := c.pause(ctx, time.Second); err != nil {
		return "", err
	}
	if err := c.session.TypeInto(ctx, selRichText, post.Content, c.timing.BodyKeys); err != nil {
		return fail("enter content", err)
	}
	if err := c.pause(ctx, 2*time.Second); err != nil {
		return "", err
	}

	if post.Flair != "" {
		if err := c.selectFlair(ctx, post.Flair); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Warn("Could not set flair", zap.String("flair", post.Flair), zap.Error(err))
		}
	}

	if err := c.session.Click(ctx, selPostSubmit); err != nil {
		return fail("click submit", err)
	}
	if err := c.wait(ctx, c.timing.AfterSubmit); err != nil {
		return "", err
	}

	current, err := c.session.CurrentURL(ctx)
	if err != nil {
		return fail("read current url", err)
	}
	if !strings.Contains(current, "/comments/") {
		return fail("post may not have been created - URL check failed", nil)
	}
	c.logger.Info("Post created", zap.String("url", current))
	return current, nil
}

func (c *Client) selectFlair(ctx context.Context, flair string) error {
	if err := c.session.Click(ctx, selFlairButton); err != nil {
		return fmt.Errorf("open flair picker: %w", err)
	}
	if err := c.pause(ctx, time.Second); err != nil {
		return err
	}
	option, err := c.session.FindByText(ctx, "span", flair)
	if err != nil {
		return fmt.Errorf("find flair option: %w", err)
	}
	if err := option.Click(ctx); err != nil {
		return fmt.Errorf("pick flair option: %w", err)
	}
	if err := c.pause(ctx, time.Second); err != nil {
		return err
	}
	if err := c.session.Click(ctx, selFlairApply); err != nil {
		return fmt.Errorf("apply flair: %w", err)
	}
	return c.pause(ctx, time.Second)
}

// PinCurrentPost pins the post open in the session via the moderator menu.
func (c *Client) PinCurrentPost(ctx context.Context) error {
	c.logger.Info("Pinning post")

	menuCtx, cancel := context.WithTimeout(ctx, c.timing.PinTimeout)
	defer cancel()

	menu, err := c.session.Find(menuCtx, selModMenu)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SubmissionError{Action: "pin", Reason: "moderator menu not available", Err: err}
	}
	if err := menu.Click(ctx); err != nil {
		return &SubmissionError{Action: "pin", Reason: "open moderator menu", Err: err}
	}
	if err := c.pause(ctx, time.Second); err != nil {
		return err
	}
	option, err := c.session.FindByText(ctx, "span", "Pin")
	if err != nil {
		return &SubmissionError{Action: "pin", Reason: "pin option not found", Err: err}
	}
	if err := option.Click(ctx); err != nil {
		return &SubmissionError{Action: "pin", Reason: "click pin", Err: err}
	}
	if err := c.pause(ctx, 2*time.Second); err != nil {
		return err
	}
	c.logger.Info("Post pinned")
	return nil
}

// RecentPosts returns the absolute URLs of up to limit posts from the
// community's newest listing. URLs are collected before any navigation so no
// element handle outlives its page.
func (c *Client) RecentPosts(ctx context.Context, limit int) ([]string, error) {
	if err := c.session.Navigate(ctx, c.NewURL()); err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	if err := c.wait(ctx, c.timing.PageLoad); err != nil {
		return nil, err
	}

	containers, err := c.session.FindAll(ctx, selPostContainer)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if limit > 0 && len(containers) > limit {
		containers = containers[:limit]
	}

	urls := make([]string, 0, len(containers))
	for _, post := range containers {
		link, err := post.Find(ctx, selPostLink)
		if err != nil {
			c.logger.Debug("Could not extract URL from post", zap.Error(err))
			continue
		}
		href, err := link.Attribute(ctx, "href")
		if err != nil || href == "" {
			c.logger.Debug("Post link has no href", zap.Error(err))
			continue
		}
		urls = append(urls, c.absolute(href))
	}
	c.logger.Info("Found posts to check for comments", zap.Int("count", len(urls)))
	return urls, nil
}

// Comments opens postURL and returns its comments in page order.
func (c *Client) Comments(ctx context.Context, postURL string) ([]Comment, error) {
	if err := c.session.Navigate(ctx, postURL); err != nil {
		return nil, fmt.Errorf("open post: %w", err)
	}
	if err := c.wait(ctx, c.timing.PostPage); err != nil {
		return nil, err
	}

	els, err := c.session.FindAll(ctx, selComment)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]Comment, 0, len(els))
	for _, el := range els {
		cm := Comment{PostURL: postURL, Handle: el}
		if author, err := el.Find(ctx, selCommentAuthor); err == nil {
			if text, err := author.Text(ctx); err == nil {
				cm.Author = strings.TrimSpace(text)
			}
		}
		replies, err := el.FindAll(ctx, selCommentThread)
		if err != nil && !errors.Is(err, browser.ErrNotFound) {
			c.logger.Debug("Could not inspect replies", zap.Error(err))
		}
		cm.HasReplies = len(replies) > 0
		comments = append(comments, cm)
	}
	return comments, nil
}

// Reply answers a comment returned by Comments on the currently open page.
func (c *Client) Reply(ctx context.Context, cm Comment, text string) error {
	fail := func(reason string, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SubmissionError{Action: "reply", Reason: reason, Err: err}
	}
	if cm.Handle == nil {
		return fail("comment has no element handle", nil)
	}

	button, err := cm.Handle.Find(ctx, selReplyButton)
	if err != nil {
		return fail("reply button", err)
	}
	if err := button.Click(ctx); err != nil {
		return fail("open reply box", err)
	}
	if err := c.pause(ctx, time.Second); err != nil {
		return err
	}

	box, err := cm.Handle.Find(ctx, selRichText)
	if err != nil {
		return fail("reply box", err)
	}
	if err := box.TypeText(ctx, text, c.timing.ReplyKeys); err != nil {
		return fail("type reply", err)
	}
	if err := c.pause(ctx, time.Second); err != nil {
		return err
	}

	submit, err := cm.Handle.Find(ctx, selReplySubmit)
	if err != nil {
		return fail("reply submit button", err)
	}
	if err := submit.Click(ctx); err != nil {
		return fail("submit reply", err)
	}
	return c.wait(ctx, c.timing.AfterReply)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

package routine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"subpilot/internal/content"
	"subpilot/internal/journal"
	"subpilot/internal/reddit"
)

// fakeCommunity scripts site behavior and records every action.
type fakeCommunity struct {
	loginErr  error
	submitErr func(post content.CommunityPost) error
	pinErr    error
	replyErr  error

	posts    []string
	comments map[string][]reddit.Comment

	submitted []content.CommunityPost
	pins      int
	replies   []string
	logins    int
}

func (f *fakeCommunity) Login(ctx context.Context, username, password string) error {
	f.logins++
	return f.loginErr
}

func (f *fakeCommunity) SubmitPost(ctx context.Context, post content.CommunityPost) (string, error) {
	f.submitted = append(f.submitted, post)
	if f.submitErr != nil {
		if err := f.submitErr(post); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("https://www.reddit.com/r/test/comments/%d/", len(f.submitted)), nil
}

func (f *fakeCommunity) PinCurrentPost(ctx context.Context) error {
	f.pins++
	return f.pinErr
}

func (f *fakeCommunity) RecentPosts(ctx context.Context, limit int) ([]string, error) {
	if len(f.posts) > limit {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

func (f *fakeCommunity) Comments(ctx context.Context, postURL string) ([]reddit.Comment, error) {
	return f.comments[postURL], nil
}

func (f *fakeCommunity) Reply(ctx context.Context, cm reddit.Comment, text string) error {
	f.replies = append(f.replies, cm.Author)
	return f.replyErr
}

func (f *fakeCommunity) titles() []string {
	var out []string
	for _, p := range f.submitted {
		out = append(out, p.Title)
	}
	return out
}

func (f *fakeCommunity) typesSubmitted() []content.PostType {
	var out []content.PostType
	for _, p := range f.submitted {
		out = append(out, p.Type)
	}
	return out
}

type fakeCloser struct {
	closed int
}

func (c *fakeCloser) Close() error {
	c.closed++
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (r *fakeRecorder) Record(ctx context.Context, e journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRecorder) actions() string {
	var parts []string
	for _, e := range r.entries {
		mark := "ok"
		if !e.Success {
			mark = "fail"
		}
		parts = append(parts, e.Action+":"+mark)
	}
	return strings.Join(parts, ",")
}

func comment(author string, hasReplies bool) reddit.Comment {
	return reddit.Comment{Author: author, HasReplies: hasReplies}
}

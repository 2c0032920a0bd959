package routine

import (
	"context"

	"subpilot/internal/content"
	"subpilot/internal/reddit"

	"go.uber.org/zap"
)

// dryRunCommunity logs every action instead of performing it. Every action
// succeeds; there are no posts to scan for comments.
type dryRunCommunity struct {
	logger *zap.Logger
}

func (d *dryRunCommunity) Login(ctx context.Context, username, password string) error {
	d.logger.Info("[DRY RUN] Would log in")
	return ctx.Err()
}

func (d *dryRunCommunity) SubmitPost(ctx context.Context, post content.CommunityPost) (string, error) {
	d.logger.Info("[DRY RUN] Would create post",
		zap.String("title", post.Title),
		zap.String("type", string(post.Type)),
		zap.String("flair", post.Flair),
		zap.Bool("pin", post.Pin),
		zap.String("content", post.Content))
	return "", ctx.Err()
}

func (d *dryRunCommunity) PinCurrentPost(ctx context.Context) error {
	d.logger.Info("[DRY RUN] Would pin post")
	return ctx.Err()
}

func (d *dryRunCommunity) RecentPosts(ctx context.Context, limit int) ([]string, error) {
	d.logger.Info("[DRY RUN] Would reply to comments", zap.Int("posts_scanned", limit))
	return nil, ctx.Err()
}

func (d *dryRunCommunity) Comments(ctx context.Context, postURL string) ([]reddit.Comment, error) {
	return nil, ctx.Err()
}

func (d *dryRunCommunity) Reply(ctx context.Context, cm reddit.Comment, text string) error {
	d.logger.Info("[DRY RUN] Would reply", zap.String("author", cm.Author), zap.String("text", text))
	return ctx.Err()
}

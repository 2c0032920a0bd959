// Package content holds the community post model and the static content
// catalog the generator draws from.
package content

import "fmt"

// PostType categorizes a community post.
type PostType string

const (
	PostTypeAnnouncement     PostType = "announcement"
	PostTypeFeatured         PostType = "featured"
	PostTypeDiscussion       PostType = "discussion"
	PostTypeTip              PostType = "tip"
	PostTypeWeekly           PostType = "weekly"
	PostTypeSuccessStory     PostType = "success_story"
	PostTypeQuestion         PostType = "question"
	PostTypeFeatureHighlight PostType = "feature_highlight"
)

// DailyKinds lists the post types a daily template may produce.
var DailyKinds = []PostType{
	PostTypeTip,
	PostTypeSuccessStory,
	PostTypeQuestion,
	PostTypeFeatureHighlight,
}

// IsDailyKind reports whether t can be used as a daily template kind.
func (t PostType) IsDailyKind() bool {
	for _, k := range DailyKinds {
		if k == t {
			return true
		}
	}
	return false
}

// ParsePostType converts a string to a PostType.
func ParsePostType(s string) (PostType, error) {
	switch t := PostType(s); t {
	case PostTypeAnnouncement, PostTypeFeatured, PostTypeDiscussion, PostTypeTip,
		PostTypeWeekly, PostTypeSuccessStory, PostTypeQuestion, PostTypeFeatureHighlight:
		return t, nil
	}
	return "", fmt.Errorf("unknown post type %q", s)
}

// CommunityPost is a fully rendered post ready for submission.
// It is built fresh for each posting attempt and never modified afterwards.
type CommunityPost struct {
	Title   string   `json:"title" yaml:"title"`
	Content string   `json:"content" yaml:"content"`
	Type    PostType `json:"post_type" yaml:"post_type"`
	Flair   string   `json:"flair" yaml:"flair"`
	Pin     bool     `json:"pin" yaml:"pin"`
}

// Package generator turns catalog templates into concrete community posts.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"text/template"
	"time"

	"subpilot/internal/content"
)

// Picker chooses a uniform index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

// NewRand returns a time-seeded random source for production use.
func NewRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>17|1))
}

type dailyTemplate struct {
	spec  content.DailyTemplateSpec
	title *template.Template
	body  *template.Template
}

// Generator builds posts and replies from a catalog.
type Generator struct {
	catalog *content.Catalog
	rng     Picker
	daily   []dailyTemplate
}

// New compiles the catalog's daily templates and renders every combination of
// template and catalog entry once, so a catalog with an unknown or missing
// placeholder is rejected here instead of at posting time.
func New(c *content.Catalog, rng Picker) (*Generator, error) {
	if c == nil {
		return nil, errors.New("generator: nil catalog")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	if rng == nil {
		rng = NewRand()
	}
	g := &Generator{catalog: c, rng: rng}

	for i, spec := range c.DailyTemplates {
		title, err := compile(fmt.Sprintf("%s-%d-title", spec.Kind, i), spec.Title)
		if err != nil {
			return nil, err
		}
		body, err := compile(fmt.Sprintf("%s-%d-content", spec.Kind, i), spec.Content)
		if err != nil {
			return nil, err
		}
		g.daily = append(g.daily, dailyTemplate{spec: spec, title: title, body: body})
	}

	if err := g.check(); err != nil {
		return nil, err
	}
	return g, nil
}

func compile(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("generator: parse template %s: %w", name, err)
	}
	return t, nil
}

func (g *Generator) check() error {
	var errs []error
	for _, t := range g.daily {
		n := g.entries(t.spec.Kind)
		for i := 0; i < n; i++ {
			if _, err := g.render(t, Fields(g.catalog, t.spec.Kind, i)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// GenerateDailyPost picks a daily template uniformly, then an entry of that
// template's kind uniformly, and renders the post.
func (g *Generator) GenerateDailyPost() content.CommunityPost {
	return g.mustGenerate(g.daily[g.rng.IntN(len(g.daily))])
}

// GenerateDailyPostOfKind renders a daily post restricted to one kind.
func (g *Generator) GenerateDailyPostOfKind(kind content.PostType) (content.CommunityPost, error) {
	var candidates []dailyTemplate
	for _, t := range g.daily {
		if t.spec.Kind == kind {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return content.CommunityPost{}, fmt.Errorf("generator: no daily template of kind %q", kind)
	}
	return g.mustGenerate(candidates[g.rng.IntN(len(candidates))]), nil
}

// GenerateWeeklyPost copies a weekly thread spec into a post.
func (g *Generator) GenerateWeeklyPost(spec content.WeeklyThreadSpec) content.CommunityPost {
	return content.CommunityPost{
		Title:   spec.Title,
		Content: spec.Content,
		Type:    content.PostTypeWeekly,
		Flair:   spec.Flair,
		Pin:     spec.Pin,
	}
}

// GenerateReply returns one of the canned replies.
func (g *Generator) GenerateReply() string {
	return g.catalog.Replies[g.rng.IntN(len(g.catalog.Replies))]
}

func (g *Generator) mustGenerate(t dailyTemplate) content.CommunityPost {
	idx := g.rng.IntN(g.entries(t.spec.Kind))
	post, err := g.render(t, Fields(g.catalog, t.spec.Kind, idx))
	if err != nil {
		// New rendered every combination already.
		panic(err)
	}
	return post
}

func (g *Generator) render(t dailyTemplate, fields map[string]string) (content.CommunityPost, error) {
	var title, body strings.Builder
	if err := t.title.Execute(&title, fields); err != nil {
		return content.CommunityPost{}, fmt.Errorf("generator: render %s: %w", t.title.Name(), err)
	}
	if err := t.body.Execute(&body, fields); err != nil {
		return content.CommunityPost{}, fmt.Errorf("generator: render %s: %w", t.body.Name(), err)
	}
	return content.CommunityPost{
		Title:   title.String(),
		Content: body.String(),
		Type:    t.spec.Kind,
		Flair:   t.spec.Flair,
		Pin:     false,
	}, nil
}

func (g *Generator) entries(kind content.PostType) int {
	switch kind {
	case content.PostTypeTip:
		return len(g.catalog.Tips)
	case content.PostTypeSuccessStory:
		return len(g.catalog.Stories)
	case content.PostTypeQuestion:
		return len(g.catalog.Questions)
	case content.PostTypeFeatureHighlight:
		return len(g.catalog.Features)
	}
	return 0
}

// Fields returns the placeholder values for entry i of the given kind.
//
//	tip:               tip_title, tip_content
//	success_story:     story_title, story_content
//	question:          question, context
//	feature_highlight: feature_name, feature_description
func Fields(c *content.Catalog, kind content.PostType, i int) map[string]string {
	switch kind {
	case content.PostTypeTip:
		tip := c.Tips[i]
		return map[string]string{"tip_title": tip.Title, "tip_content": tip.Content}
	case content.PostTypeSuccessStory:
		s := c.Stories[i]
		return map[string]string{"story_title": s.Title, "story_content": s.Content}
	case content.PostTypeQuestion:
		q := c.Questions[i]
		return map[string]string{"question": q.Question, "context": q.Context}
	case content.PostTypeFeatureHighlight:
		f := c.Features[i]
		return map[string]string{"feature_name": f.Name, "feature_description": f.Description}
	}
	return map[string]string{}
}

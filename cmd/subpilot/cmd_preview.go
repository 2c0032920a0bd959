package main

import (
	"fmt"
	"strings"

	"subpilot/internal/content"
	"subpilot/internal/generator"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	previewKind string
	previewDay  string
	previewRaw  bool
)

// previewCmd generates content without touching the site.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate a post or reply and render it in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	catalog, err := content.Load(cfg.Community.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	gen, err := generator.New(catalog, generator.NewRand())
	if err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	md, err := previewMarkdown(catalog, gen, previewKind, previewDay)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if previewRaw {
		_, err := fmt.Fprint(out, md)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func previewMarkdown(catalog *content.Catalog, gen *generator.Generator, kind, day string) (string, error) {
	switch kind {
	case "", "daily":
		return postMarkdown(gen.GenerateDailyPost()), nil
	case "reply":
		return "> " + gen.GenerateReply() + "\n", nil
	case string(content.PostTypeWeekly):
		spec, err := weeklySpec(catalog, day)
		if err != nil {
			return "", err
		}
		return postMarkdown(gen.GenerateWeeklyPost(spec)), nil
	}

	pt, err := content.ParsePostType(kind)
	if err != nil {
		return "", err
	}
	post, err := gen.GenerateDailyPostOfKind(pt)
	if err != nil {
		return "", err
	}
	return postMarkdown(post), nil
}

func weeklySpec(catalog *content.Catalog, day string) (content.WeeklyThreadSpec, error) {
	if len(catalog.WeeklyThreads) == 0 {
		return content.WeeklyThreadSpec{}, fmt.Errorf("catalog has no weekly threads")
	}
	if day == "" {
		return catalog.WeeklyThreads[0], nil
	}
	d, err := content.ParseDay(day)
	if err != nil {
		return content.WeeklyThreadSpec{}, err
	}
	for _, spec := range catalog.WeeklyThreads {
		if spec.Day == d {
			return spec, nil
		}
	}
	return content.WeeklyThreadSpec{}, fmt.Errorf("no weekly thread on %s", d)
}

func postMarkdown(post content.CommunityPost) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", post.Title)

	meta := []string{"type: " + string(post.Type)}
	if post.Flair != "" {
		meta = append(meta, "flair: "+post.Flair)
	}
	if post.Pin {
		meta = append(meta, "pinned")
	}
	fmt.Fprintf(&sb, "_%s_\n\n", strings.Join(meta, " | "))

	sb.WriteString(strings.TrimSpace(post.Content))
	sb.WriteString("\n")
	return sb.String()
}

package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Day is a day of the week that reads and writes as a lowercase name.
type Day time.Weekday

// ParseDay parses a day name such as "monday" (case-insensitive).
func ParseDay(s string) (Day, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return Day(d), nil
		}
	}
	return 0, fmt.Errorf("unknown day of week %q", s)
}

// String returns the lowercase day name used in state files.
func (d Day) String() string {
	return strings.ToLower(time.Weekday(d).String())
}

// Matches reports whether t falls on this day of the week.
func (d Day) Matches(t time.Time) bool {
	return time.Weekday(d) == t.Weekday()
}

func (d *Day) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDay(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// WeeklyThreadSpec describes a recurring thread posted on one day of the week.
type WeeklyThreadSpec struct {
	Day     Day    `yaml:"day"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Flair   string `yaml:"flair"`
	Pin     bool   `yaml:"pin"`
}

// DailyTemplateSpec is a title/content template for one kind of daily post.
type DailyTemplateSpec struct {
	Kind    PostType `yaml:"kind"`
	Title   string   `yaml:"title"`
	Content string   `yaml:"content"`
	Flair   string   `yaml:"flair"`
}

// Tip is a short piece of advice for tip posts.
type Tip struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// Story is an exemplar success story.
type Story struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// Question is a question-of-the-day prompt with its framing text.
type Question struct {
	Question string `yaml:"question"`
	Context  string `yaml:"context"`
}

// Feature is a product feature blurb.
type Feature struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Catalog is the read-only content the generator draws from.
type Catalog struct {
	WeeklyThreads  []WeeklyThreadSpec  `yaml:"weekly_threads"`
	DailyTemplates []DailyTemplateSpec `yaml:"daily_templates"`
	Tips           []Tip               `yaml:"tips"`
	Stories        []Story             `yaml:"stories"`
	Questions      []Question          `yaml:"questions"`
	Features       []Feature           `yaml:"features"`
	Replies        []string            `yaml:"replies"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file. An empty path returns the built-in
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every daily template kind has entries to draw from.
func (c *Catalog) Validate() error {
	var errs []error
	if len(c.DailyTemplates) == 0 {
		errs = append(errs, errors.New("catalog has no daily templates"))
	}
	if len(c.Replies) == 0 {
		errs = append(errs, errors.New("catalog has no replies"))
	}
	for i, t := range c.DailyTemplates {
		if !t.Kind.IsDailyKind() {
			errs = append(errs, fmt.Errorf("daily template %d: kind %q is not a daily kind", i, t.Kind))
			continue
		}
		if c.entries(t.Kind) == 0 {
			errs = append(errs, fmt.Errorf("daily template %d: no %s entries in catalog", i, t.Kind))
		}
	}
	for i, w := range c.WeeklyThreads {
		if w.Title == "" {
			errs = append(errs, fmt.Errorf("weekly thread %d (%s): empty title", i, w.Day))
		}
	}
	return errors.Join(errs...)
}

// WeeklyFor returns the weekly thread specs scheduled on t's weekday.
func (c *Catalog) WeeklyFor(t time.Time) []WeeklyThreadSpec {
	var out []WeeklyThreadSpec
	for _, w := range c.WeeklyThreads {
		if w.Day.Matches(t) {
			out = append(out, w)
		}
	}
	return out
}

func (c *Catalog) entries(kind PostType) int {
	switch kind {
	case PostTypeTip:
		return len(c.Tips)
	case PostTypeSuccessStory:
		return len(c.Stories)
	case PostTypeQuestion:
		return len(c.Questions)
	case PostTypeFeatureHighlight:
		return len(c.Features)
	}
	return 0
}

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SimpleTable renders static rows with aligned columns.
type SimpleTable struct {
	Title    string
	Headers  []string
	Rows     [][]string
	MaxWidth int    // per-column cap, 0 = unlimited
	Empty    string // shown instead of the table when there are no rows
}

// NewSimpleTable creates a table with the given title and headers.
func NewSimpleTable(title string, headers []string) *SimpleTable {
	return &SimpleTable{
		Title:   title,
		Headers: headers,
		Rows:    make([][]string, 0),
	}
}

// AddRow adds a row. Missing cells render empty; extra cells are dropped.
func (t *SimpleTable) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table using styles.
func (t *SimpleTable) View(styles Styles) string {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		if t.Empty != "" {
			sb.WriteString(styles.Muted.Render(t.Empty))
			sb.WriteString("\n")
		}
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := range widths {
			if w := lipgloss.Width(t.cell(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	header := styles.Bold.Padding(0, 1)
	body := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	line := func(style lipgloss.Style, cells func(i int) string) {
		parts := make([]string, len(widths))
		for i, w := range widths {
			// Width includes the padding.
			parts[i] = style.Width(w + 2).Render(cells(i))
		}
		sb.WriteString(strings.Join(parts, sep))
		sb.WriteString("\n")
	}

	line(header, func(i int) string { return t.Headers[i] })

	total := len(widths) - 1
	for _, w := range widths {
		total += w + 2
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		line(body, func(i int) string { return t.cell(row, i) })
	}
	return sb.String()
}

func (t *SimpleTable) cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	c := strings.ReplaceAll(row[i], "\n", " ")
	if t.MaxWidth > 3 && lipgloss.Width(c) > t.MaxWidth {
		r := []rune(c)
		if len(r) > t.MaxWidth-3 {
			c = string(r[:t.MaxWidth-3]) + "..."
		}
	}
	return c
}

package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"subpilot/cmd/subpilot/ui"
	"subpilot/internal/journal"
	"subpilot/internal/state"

	"github.com/spf13/cobra"
)

var statusLimit int

// statusCmd reports the last run and the latest journal entries.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run and recent activity",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	styles := ui.DefaultStyles()
	out := cmd.OutOrStdout()

	store := state.NewStore(cfg.Storage.StatePath)
	st, err := store.Load()
	if err != nil {
		fmt.Fprintln(out, styles.Warning.Render("State file unreadable: "+err.Error()))
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("r/" + cfg.Community.Subreddit))
	sb.WriteString("\n")
	sb.WriteString(styles.Field("State file", store.Path()))
	if st.LastRun == "" {
		sb.WriteString(styles.Field("Last run", "never"))
	} else {
		sb.WriteString(styles.Field("Last run", st.LastRun))
		sb.WriteString(styles.Field("Posts made", fmt.Sprint(st.PostsMade)))
	}

	days := make([]string, 0, len(st.WeeklyThreads))
	for day := range st.WeeklyThreads {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		sb.WriteString(styles.Field("Weekly "+day, st.WeeklyThreads[day]))
	}
	sb.WriteString("\n")

	entries, err := recentActivity(cmd, statusLimit)
	if err != nil {
		return err
	}
	table := ui.NewSimpleTable("Recent activity", []string{"When", "Action", "Result", "Title", "Target"})
	table.MaxWidth = 48
	table.Empty = "No activity recorded yet."
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = "failed: " + e.Error
		}
		table.AddRow(e.CreatedAt.Format("2006-01-02 15:04"), e.Action, result, e.Title, e.Target)
	}
	sb.WriteString(table.View(styles))

	_, err = fmt.Fprint(out, sb.String())
	return err
}

// recentActivity reads the journal without creating it when absent.
func recentActivity(cmd *cobra.Command, limit int) ([]journal.Entry, error) {
	path := cfg.Storage.JournalPath
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	defer j.Close()
	return j.Recent(cmd.Context(), limit)
}

package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"toggl2clockify/journal"
)

// UserSummary aggregates the entry outcomes of one user in one workspace.
type UserSummary struct {
	Workspace     string
	Email         string
	Entries       int
	Created       int
	AlreadyExists int
	Failed        int
	FirstStart    time.Time
	LastStart     time.Time
}

func BuildUserSummaries(entries []journal.EntryRecord) []UserSummary {
	if len(entries) == 0 {
		return []UserSummary{}
	}

	type key struct{ workspace, email string }
	byUser := make(map[key]*UserSummary)
	for _, entry := range entries {
		k := key{entry.Workspace, strings.ToLower(entry.Email)}
		summary, ok := byUser[k]
		if !ok {
			summary = &UserSummary{Workspace: entry.Workspace, Email: k.email, FirstStart: entry.Start, LastStart: entry.Start}
			byUser[k] = summary
		}
		summary.Entries++
		switch entry.Outcome {
		case "created":
			summary.Created++
		case "already_exists":
			summary.AlreadyExists++
		default:
			summary.Failed++
		}
		if entry.Start.Before(summary.FirstStart) {
			summary.FirstStart = entry.Start
		}
		if entry.Start.After(summary.LastStart) {
			summary.LastStart = entry.Start
		}
	}

	summaries := make([]UserSummary, 0, len(byUser))
	for _, summary := range byUser {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Workspace != summaries[j].Workspace {
			return summaries[i].Workspace < summaries[j].Workspace
		}
		return summaries[i].Email < summaries[j].Email
	})
	return summaries
}

var userSummaryHeaders = []string{"Workspace", "Email", "Entries", "Created", "AlreadyExists", "Failed", "FirstStart", "LastStart"}

// WriteUserSummaries writes summaries as csv or excel.
func WriteUserSummaries(path, format string, summaries []UserSummary) error {
	switch normalizeFormat(format) {
	case "csv":
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{
				s.Workspace,
				s.Email,
				strconv.Itoa(s.Entries),
				strconv.Itoa(s.Created),
				strconv.Itoa(s.AlreadyExists),
				strconv.Itoa(s.Failed),
				s.FirstStart.Format(time.RFC3339),
				s.LastStart.Format(time.RFC3339),
			})
		}
		return writeCSV(path, userSummaryHeaders, rows)
	case "excel", "xlsx":
		rows := make([][]any, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []any{
				s.Workspace,
				s.Email,
				s.Entries,
				s.Created,
				s.AlreadyExists,
				s.Failed,
				s.FirstStart.Format(time.RFC3339),
				s.LastStart.Format(time.RFC3339),
			})
		}
		return writeExcel(path, "Users", userSummaryHeaders, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

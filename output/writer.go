package output

import (
	"fmt"
	"strings"
	"time"

	"toggl2clockify/journal"
)

type Writer interface {
	Write(path string, entries []journal.EntryRecord) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

var entryHeaders = []string{"RunID", "Workspace", "Email", "Start", "Description", "Project", "Outcome", "State", "RemoteID", "Error", "RecordedAt"}

func entryRow(entry journal.EntryRecord) []string {
	return []string{
		entry.RunID,
		entry.Workspace,
		entry.Email,
		entry.Start.Format(time.RFC3339),
		entry.Description,
		entry.Project,
		entry.Outcome,
		entry.State,
		entry.RemoteID,
		entry.Error,
		entry.RecordedAt.Format(time.RFC3339),
	}
}

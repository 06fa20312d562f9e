package migrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"toggl2clockify/clockify"
	"toggl2clockify/internal/timeutil"
	"toggl2clockify/toggl"
)

// syncEntries streams the Toggl detailed report for [since, until) and
// submits every page to Clockify before the next page is requested.
func (m *Migrator) syncEntries(ctx context.Context, ws workspace, since, until time.Time) (PhaseStatus, error) {
	var status PhaseStatus
	err := m.source.StreamReports(ctx, ws.togglID, since, until, func(ctx context.Context, rows []toggl.ReportRow, total int) error {
		return m.onReportPage(ctx, ws, rows, total, &status)
	})
	return status, err
}

func (m *Migrator) onReportPage(ctx context.Context, ws workspace, rows []toggl.ReportRow, total int, status *PhaseStatus) error {
	if len(rows) == 0 {
		return nil
	}

	queued := make([]*clockify.TimeEntry, 0, len(rows))
	for i, row := range rows {
		entry, err := entryFromRow(row)
		if err != nil {
			m.log.Warn("report row skipped", slog.String("description", row.Description), slog.Any("error", err))
			status.Failed++
			continue
		}
		m.log.Debug(fmt.Sprintf("Queuing entry %s, project: %s (%d of %d)",
			entry.Description, projectLabel(entry.ProjectName, entry.ClientName), status.Entries+i+1, total))

		match, err := m.VerifyEmail(ctx, ws, row.UserID, row.User)
		if err != nil {
			m.log.Warn("entry owner not resolvable",
				slog.Int64("toggl_user", row.UserID),
				slog.String("description", row.Description),
				slog.Any("error", err),
			)
			status.Failed++
			continue
		}
		if match.Excluded() {
			m.log.Info("toggl user not in clockify workspace, skipping entry",
				slog.Int64("toggl_user", row.UserID),
				slog.String("name", row.User),
				slog.String("description", row.Description),
			)
			status.Skipped++
			continue
		}

		entry.Email = match.Email
		entry.Workspace = ws.name
		queued = append(queued, entry)
	}

	results := m.target.AddEntries(ctx, queued)
	for _, result := range results {
		status.Tally(result.Outcome())
	}
	status.Entries += len(rows)
	m.recordEntries(ctx, ws, results)
	return ctx.Err()
}

// entryFromRow builds an unresolved entry from a report row. Times are
// normalized to UTC.
func entryFromRow(row toggl.ReportRow) (*clockify.TimeEntry, error) {
	start, err := timeutil.ParseReportTime(row.Start)
	if err != nil {
		return nil, fmt.Errorf("parse start %q: %w", row.Start, err)
	}
	entry := &clockify.TimeEntry{
		Start:       start,
		Description: row.Description,
		Billable:    row.IsBillable,
		ProjectName: row.Project,
		ClientName:  row.Client,
		TaskName:    row.Task,
		TagNames:    row.Tags,
	}
	if row.End != nil {
		end, err := timeutil.ParseReportTime(*row.End)
		if err != nil {
			return nil, fmt.Errorf("parse end %q: %w", *row.End, err)
		}
		entry.End = &end
	}
	return entry, nil
}

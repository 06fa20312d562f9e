package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// WireLayout is the UTC timestamp format Clockify accepts and echoes back.
const WireLayout = "2006-01-02T15:04:05Z"

const dayLayout = "2006-01-02"

const localLayout = "2006-01-02T15:04:05"

// ReportWindow is the widest span the Toggl reports API accepts per query.
const ReportWindow = 300 * 24 * time.Hour

type Window struct {
	Since time.Time
	Until time.Time
}

func FormatWire(value time.Time) string {
	return value.UTC().Format(WireLayout)
}

// Windows splits [since, until) into consecutive windows no longer than span.
func Windows(since, until time.Time, span time.Duration) []Window {
	if span <= 0 || !since.Before(until) {
		return nil
	}

	windows := make([]Window, 0, int(until.Sub(since)/span)+1)
	for cursor := since; cursor.Before(until); {
		next := cursor.Add(span)
		if next.After(until) {
			next = until
		}
		windows = append(windows, Window{Since: cursor, Until: next})
		cursor = next
	}
	return windows
}

// ParseBoundary accepts RFC3339 timestamps or plain dates interpreted in loc.
func ParseBoundary(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	if loc == nil {
		loc = time.Local
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.ParseInLocation(dayLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q (expected RFC3339 or YYYY-MM-DD): %w", value, err)
	}
	return parsed, nil
}

// ParseReportTime parses a report timestamp. Values without an offset are
// read as UTC. The result is always in UTC.
func ParseReportTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.ParseInLocation(localLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q (expected RFC3339 or %s): %w", value, localLayout, err)
	}
	return parsed, nil
}

// ISODuration renders seconds as an ISO-8601 duration like PT1H30M15S.
// Leading zero units are dropped; non-positive input yields "".
func ISODuration(seconds int64) string {
	if seconds <= 0 {
		return ""
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	fmt.Fprintf(&b, "%dS", secs)
	return b.String()
}

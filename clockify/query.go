package clockify

import (
	"context"
	"net/url"
	"time"

	"toggl2clockify/internal/timeutil"
)

type projectResolver interface {
	ProjectID(ctx context.Context, workspaceID, name string, clientName *string) (string, error)
}

// EntryQuery selects one user's entries in a workspace, optionally narrowed
// to the entries that could duplicate a given TimeEntry.
type EntryQuery struct {
	Email       string
	WorkspaceID string
	UserID      string
	Description *string
	ProjectName *string
	ClientName  *string
	Start       *time.Time

	params url.Values
}

// NewEntryQuery narrows on the entry's description, start and project. The
// entry must already be resolved.
func NewEntryQuery(entry *TimeEntry) *EntryQuery {
	description := entry.Description
	start := entry.Start
	return &EntryQuery{
		Email:       entry.Email,
		WorkspaceID: entry.WorkspaceID,
		UserID:      entry.UserID,
		Description: &description,
		ProjectName: entry.ProjectName,
		ClientName:  entry.ClientName,
		Start:       &start,
	}
}

// NewUserEntryQuery selects every entry of a user.
func NewUserEntryQuery(email, workspaceID, userID string) *EntryQuery {
	return &EntryQuery{Email: email, WorkspaceID: workspaceID, UserID: userID}
}

// Params renders the query string on first use and reuses it afterwards.
func (q *EntryQuery) Params(ctx context.Context, r projectResolver) (url.Values, error) {
	if q.params != nil {
		return q.params, nil
	}

	params := url.Values{}
	if q.Description != nil {
		params.Set("description", *q.Description)
	}
	if q.Start != nil {
		params.Set("start", timeutil.FormatWire(*q.Start))
	}
	if q.ProjectName != nil {
		projectID, err := r.ProjectID(ctx, q.WorkspaceID, *q.ProjectName, q.ClientName)
		if err != nil {
			return nil, err
		}
		params.Set("project", projectID)
	}
	q.params = params
	return q.params, nil
}

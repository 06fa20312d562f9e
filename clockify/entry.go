package clockify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"toggl2clockify/internal/timeutil"
)

// TimeEntry is a source time entry on its way to Clockify. Names are set
// from the source; ids are filled in by ProcessIDs.
type TimeEntry struct {
	Start       time.Time
	End         *time.Time
	Description string
	Billable    bool
	ProjectName *string
	ClientName  *string
	TaskName    *string
	// TagNames nil means the source gave no tags; an empty non-nil slice
	// means it explicitly gave none.
	TagNames  []string
	Email     string
	Workspace string

	WorkspaceID string
	UserID      string
	ProjectID   string
	TaskID      string
	TagIDs      []string
	resolved    bool
}

// EntryResolver translates names into Clockify ids.
type EntryResolver interface {
	WorkspaceID(name string) (string, error)
	ProjectID(ctx context.Context, workspaceID, name string, clientName *string) (string, error)
	TaskID(ctx context.Context, workspaceID, projectID, name string) (string, error)
	TagID(ctx context.Context, workspaceID, name string) (string, error)
}

// EntryRequest is the create payload. End is always present; a missing end
// is sent as the start, giving a zero-length entry.
type EntryRequest struct {
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Billable    bool     `json:"billable"`
	Description string   `json:"description"`
	ProjectID   string   `json:"projectId,omitempty"`
	TaskID      string   `json:"taskId,omitempty"`
	TagIDs      []string `json:"tagIds,omitzero"`
}

func (e *TimeEntry) Resolved() bool {
	return e.resolved
}

func (e *TimeEntry) WireStart() string {
	return timeutil.FormatWire(e.Start)
}

func (e *TimeEntry) WireEnd() string {
	if e.End == nil {
		return e.WireStart()
	}
	return timeutil.FormatWire(*e.End)
}

// ProcessIDs resolves workspace, project, task and tag ids and takes the
// user id from the acting identity. It may run only once per entry.
func (e *TimeEntry) ProcessIDs(ctx context.Context, r EntryResolver, as Identity) error {
	if e.resolved {
		return ErrAlreadyResolved
	}
	if e.TaskName != nil && e.ProjectName == nil {
		return fmt.Errorf("task %q given without a project", *e.TaskName)
	}
	if as.ID == "" {
		return errors.New("acting identity has no user id")
	}

	workspaceID, err := r.WorkspaceID(e.Workspace)
	if err != nil {
		return err
	}

	var projectID, taskID string
	if e.ProjectName != nil {
		projectID, err = r.ProjectID(ctx, workspaceID, *e.ProjectName, e.ClientName)
		if err != nil {
			return err
		}
		if e.TaskName != nil {
			taskID, err = r.TaskID(ctx, workspaceID, projectID, *e.TaskName)
			if err != nil {
				return err
			}
		}
	}

	var tagIDs []string
	if e.TagNames != nil {
		tagIDs = make([]string, 0, len(e.TagNames))
		for _, name := range e.TagNames {
			tagID, err := r.TagID(ctx, workspaceID, name)
			if err != nil {
				return err
			}
			tagIDs = append(tagIDs, tagID)
		}
	}

	e.WorkspaceID = workspaceID
	e.UserID = as.ID
	e.ProjectID = projectID
	e.TaskID = taskID
	e.TagIDs = tagIDs
	e.resolved = true
	return nil
}

func (e *TimeEntry) ToRequest() EntryRequest {
	return EntryRequest{
		Start:       e.WireStart(),
		End:         e.WireEnd(),
		Billable:    e.Billable,
		Description: e.Description,
		ProjectID:   e.ProjectID,
		TaskID:      e.TaskID,
		TagIDs:      e.TagIDs,
	}
}

// Diff reports whether candidate is a different entry. Start times compare
// as wire strings. A candidate project id counts only when present, and tags
// count only when this entry carries tag names. tagName maps a candidate tag
// id to its name.
func (e *TimeEntry) Diff(candidate RemoteEntry, tagName func(id string) string) bool {
	if e.WireStart() != candidate.TimeInterval.Start {
		return true
	}
	if candidate.ProjectID != "" && candidate.ProjectID != e.ProjectID {
		return true
	}
	if e.Description != candidate.Description {
		return true
	}
	if e.UserID != candidate.UserID {
		return true
	}
	if e.TagNames == nil {
		return false
	}

	want := make(map[string]struct{}, len(e.TagNames))
	for _, name := range e.TagNames {
		want[name] = struct{}{}
	}
	got := make(map[string]struct{}, len(candidate.TagIDs))
	for _, id := range candidate.TagIDs {
		name := id
		if tagName != nil {
			name = tagName(id)
		}
		got[name] = struct{}{}
	}
	if len(want) != len(got) {
		return true
	}
	for name := range want {
		if _, ok := got[name]; !ok {
			return true
		}
	}
	return false
}

// IsDuplicate reports whether any candidate matches entry.
func IsDuplicate(entry *TimeEntry, candidates []RemoteEntry, tagName func(id string) string) bool {
	for _, candidate := range candidates {
		if !entry.Diff(candidate, tagName) {
			return true
		}
	}
	return false
}

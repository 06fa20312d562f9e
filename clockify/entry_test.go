package clockify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeResolver struct {
	projectCalls int
}

func (r *fakeResolver) WorkspaceID(name string) (string, error) {
	if name != testWorkspaceName {
		return "", ErrNotFound
	}
	return testWorkspaceID, nil
}

func (r *fakeResolver) ProjectID(ctx context.Context, workspaceID, name string, clientName *string) (string, error) {
	r.projectCalls++
	if name == "Internal" && clientName == nil {
		return "p-internal", nil
	}
	return "", ErrNotFound
}

func (r *fakeResolver) TaskID(ctx context.Context, workspaceID, projectID, name string) (string, error) {
	if projectID == "p-internal" && name == "Review" {
		return "task-review", nil
	}
	return "", ErrNotFound
}

func (r *fakeResolver) TagID(ctx context.Context, workspaceID, name string) (string, error) {
	switch name {
	case "meeting":
		return "t-meeting", nil
	case "ops":
		return "t-ops", nil
	}
	return "", ErrNotFound
}

var alice = Identity{APIKey: "alice-key", ID: "u-alice", Email: "alice@example.com"}

func resolvedEntry(t *testing.T, mutate func(e *TimeEntry)) *TimeEntry {
	t.Helper()
	entry := newStandupEntry()
	if mutate != nil {
		mutate(entry)
	}
	if err := entry.ProcessIDs(context.Background(), &fakeResolver{}, alice); err != nil {
		t.Fatalf("process ids: %v", err)
	}
	return entry
}

func tagNames(id string) string {
	return map[string]string{"t-meeting": "meeting", "t-ops": "ops"}[id]
}

func TestToRequest_WireFormat(t *testing.T) {
	t.Parallel()

	entry := resolvedEntry(t, nil)
	payload, err := json.Marshal(entry.ToRequest())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"start":"2023-01-01T09:00:00Z","end":"2023-01-01T10:00:00Z","billable":false,"description":"Standup","projectId":"p-internal","tagIds":["t-meeting"]}`
	if string(payload) != want {
		t.Fatalf("unexpected payload\n got: %s\nwant: %s", payload, want)
	}
}

func TestToRequest_TagPresence(t *testing.T) {
	t.Parallel()

	notGiven := resolvedEntry(t, func(e *TimeEntry) { e.TagNames = nil })
	payload, _ := json.Marshal(notGiven.ToRequest())
	if strings.Contains(string(payload), "tagIds") {
		t.Fatalf("tagIds must be omitted when no tags were given: %s", payload)
	}

	empty := resolvedEntry(t, func(e *TimeEntry) { e.TagNames = []string{} })
	payload, _ = json.Marshal(empty.ToRequest())
	if !strings.Contains(string(payload), `"tagIds":[]`) {
		t.Fatalf("tagIds must be an empty list when given empty: %s", payload)
	}
}

func TestToRequest_MissingEndUsesStart(t *testing.T) {
	t.Parallel()

	entry := resolvedEntry(t, func(e *TimeEntry) { e.End = nil })
	req := entry.ToRequest()
	if req.End != req.Start {
		t.Fatalf("expected zero-length entry, got %s - %s", req.Start, req.End)
	}
}

func TestProcessIDs_OnlyOnce(t *testing.T) {
	t.Parallel()

	entry := resolvedEntry(t, nil)
	before := entry.WireStart()
	err := entry.ProcessIDs(context.Background(), &fakeResolver{}, alice)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if entry.WireStart() != before {
		t.Fatalf("second call must not alter timestamps")
	}
}

func TestProcessIDs_TaskRequiresProject(t *testing.T) {
	t.Parallel()

	entry := newStandupEntry()
	entry.ProjectName = nil
	entry.TaskName = strPtr("Review")
	if err := entry.ProcessIDs(context.Background(), &fakeResolver{}, alice); err == nil {
		t.Fatalf("expected error for task without project")
	}
	if entry.Resolved() {
		t.Fatalf("failed resolution must leave the entry unresolved")
	}
}

func TestProcessIDs_ResolvesTask(t *testing.T) {
	t.Parallel()

	entry := resolvedEntry(t, func(e *TimeEntry) { e.TaskName = strPtr("Review") })
	if entry.TaskID != "task-review" || entry.UserID != "u-alice" || entry.WorkspaceID != testWorkspaceID {
		t.Fatalf("unexpected resolution: %+v", entry)
	}
}

func matchingCandidate() RemoteEntry {
	return RemoteEntry{
		ID:           "e1",
		Description:  "Standup",
		ProjectID:    "p-internal",
		UserID:       "u-alice",
		TagIDs:       []string{"t-meeting"},
		TimeInterval: TimeInterval{Start: "2023-01-01T09:00:00Z"},
	}
}

func TestDiff_Sensitivity(t *testing.T) {
	t.Parallel()

	entry := resolvedEntry(t, nil)
	if entry.Diff(matchingCandidate(), tagNames) {
		t.Fatalf("identical candidate must not differ")
	}

	tests := []struct {
		name   string
		mutate func(c *RemoteEntry)
	}{
		{name: "start", mutate: func(c *RemoteEntry) { c.TimeInterval.Start = "2023-01-01T09:00:01Z" }},
		{name: "project", mutate: func(c *RemoteEntry) { c.ProjectID = "p-other" }},
		{name: "description", mutate: func(c *RemoteEntry) { c.Description = "Retro" }},
		{name: "user", mutate: func(c *RemoteEntry) { c.UserID = "u-bob" }},
		{name: "tags", mutate: func(c *RemoteEntry) { c.TagIDs = []string{"t-ops"} }},
		{name: "nil tags", mutate: func(c *RemoteEntry) { c.TagIDs = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			candidate := matchingCandidate()
			tc.mutate(&candidate)
			if !entry.Diff(candidate, tagNames) {
				t.Fatalf("changing %s must make the candidate differ", tc.name)
			}
		})
	}
}

func TestDiff_IgnoresUnsetFields(t *testing.T) {
	t.Parallel()

	noTags := resolvedEntry(t, func(e *TimeEntry) { e.TagNames = nil })
	candidate := matchingCandidate()
	candidate.TagIDs = []string{"t-ops", "t-meeting"}
	if noTags.Diff(candidate, tagNames) {
		t.Fatalf("tags must be ignored when the entry has none given")
	}

	candidate = matchingCandidate()
	candidate.ProjectID = ""
	if noTags.Diff(candidate, tagNames) {
		t.Fatalf("a candidate without project must not differ on project")
	}

	emptyTags := resolvedEntry(t, func(e *TimeEntry) { e.TagNames = []string{} })
	candidate = matchingCandidate()
	candidate.TagIDs = nil
	if emptyTags.Diff(candidate, tagNames) {
		t.Fatalf("empty tags must match a candidate with null tags")
	}
}

func TestDiff_Symmetry(t *testing.T) {
	t.Parallel()

	a := resolvedEntry(t, nil)
	b := resolvedEntry(t, nil)
	candidates := []RemoteEntry{matchingCandidate()}
	other := matchingCandidate()
	other.Description = "Retro"
	candidates = append(candidates, other)

	for _, candidate := range candidates {
		if a.Diff(candidate, tagNames) != b.Diff(candidate, tagNames) {
			t.Fatalf("entries built from the same source row disagree on %+v", candidate)
		}
	}
}

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	entry := resolvedEntry(t, nil)
	other := matchingCandidate()
	other.Description = "Retro"

	if IsDuplicate(entry, nil, tagNames) {
		t.Fatalf("no candidates means no duplicate")
	}
	if IsDuplicate(entry, []RemoteEntry{other}, tagNames) {
		t.Fatalf("different candidate must not be a duplicate")
	}
	if !IsDuplicate(entry, []RemoteEntry{other, matchingCandidate()}, tagNames) {
		t.Fatalf("expected duplicate when one candidate matches")
	}
}

func TestEntryQuery_ParamsAreRenderedOnce(t *testing.T) {
	t.Parallel()

	entry := resolvedEntry(t, nil)
	query := NewEntryQuery(entry)
	resolver := &fakeResolver{}

	first, err := query.Params(context.Background(), resolver)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if _, err := query.Params(context.Background(), resolver); err != nil {
		t.Fatalf("params: %v", err)
	}
	if resolver.projectCalls != 1 {
		t.Fatalf("expected project to be resolved once, got %d", resolver.projectCalls)
	}
	if first.Get("description") != "Standup" || first.Get("start") != "2023-01-01T09:00:00Z" || first.Get("project") != "p-internal" {
		t.Fatalf("unexpected params: %v", first)
	}

	userQuery := NewUserEntryQuery("alice@example.com", testWorkspaceID, "u-alice")
	params, err := userQuery.Params(context.Background(), resolver)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if len(params) != 0 {
		t.Fatalf("user query must not filter, got %v", params)
	}
}

func TestWireStart_NormalizesToUTC(t *testing.T) {
	t.Parallel()

	entry := &TimeEntry{Start: time.Date(2023, 6, 1, 8, 0, 0, 0, time.FixedZone("CEST", 7200))}
	if got := entry.WireStart(); got != "2023-06-01T06:00:00Z" {
		t.Fatalf("unexpected wire start %q", got)
	}
}

package migrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"toggl2clockify/clockify"
	"toggl2clockify/journal"
	"toggl2clockify/toggl"
)

const togglWS = int64(11)

type fakeSource struct {
	Source

	workspaces    []toggl.Workspace
	users         []toggl.User
	clients       []toggl.Client
	projects      []toggl.Project
	tags          []toggl.Tag
	groups        []toggl.Group
	tasks         []toggl.Task
	projectUsers  map[int64][]toggl.ProjectUser
	projectGroups map[int64][]toggl.ProjectGroup
	pages         [][]toggl.ReportRow
}

func (f *fakeSource) Workspaces() []toggl.Workspace { return f.workspaces }

func (f *fakeSource) WorkspaceID(name string) (int64, error) {
	for _, ws := range f.workspaces {
		if ws.Name == name {
			return ws.ID, nil
		}
	}
	return 0, fmt.Errorf("toggl workspace %q: %w", name, toggl.ErrNotFound)
}

func (f *fakeSource) Users(ctx context.Context, ws int64) ([]toggl.User, error) { return f.users, nil }

func (f *fakeSource) Clients(ctx context.Context, ws int64) ([]toggl.Client, error) {
	return f.clients, nil
}

func (f *fakeSource) Projects(ctx context.Context, ws int64) ([]toggl.Project, error) {
	return f.projects, nil
}

func (f *fakeSource) Tags(ctx context.Context, ws int64) ([]toggl.Tag, error) { return f.tags, nil }

func (f *fakeSource) Groups(ctx context.Context, ws int64) ([]toggl.Group, error) { return f.groups, nil }

func (f *fakeSource) Tasks(ctx context.Context, ws int64) ([]toggl.Task, error) { return f.tasks, nil }

func (f *fakeSource) ProjectUsers(ctx context.Context, projectID int64) ([]toggl.ProjectUser, error) {
	return f.projectUsers[projectID], nil
}

func (f *fakeSource) ProjectGroups(ctx context.Context, projectID int64) ([]toggl.ProjectGroup, error) {
	return f.projectGroups[projectID], nil
}

func (f *fakeSource) UserEmail(ctx context.Context, ws, userID int64) (string, error) {
	for _, user := range f.users {
		if user.ID == userID {
			return user.Email, nil
		}
	}
	return "", fmt.Errorf("toggl user %d: %w", userID, toggl.ErrNotFound)
}

func (f *fakeSource) Username(ctx context.Context, ws, userID int64) (string, error) {
	for _, user := range f.users {
		if user.ID == userID {
			return user.Fullname, nil
		}
	}
	return "", fmt.Errorf("toggl user %d: %w", userID, toggl.ErrNotFound)
}

func (f *fakeSource) GroupName(ctx context.Context, ws, groupID int64) (string, error) {
	for _, group := range f.groups {
		if group.ID == groupID {
			return group.Name, nil
		}
	}
	return "", fmt.Errorf("toggl group %d: %w", groupID, toggl.ErrNotFound)
}

func (f *fakeSource) ClientName(ctx context.Context, ws, clientID int64, nullOK bool) (string, error) {
	for _, client := range f.clients {
		if client.ID == clientID {
			return client.Name, nil
		}
	}
	if nullOK {
		return "", nil
	}
	return "", fmt.Errorf("toggl client %d: %w", clientID, toggl.ErrNotFound)
}

func (f *fakeSource) ProjectByID(ctx context.Context, ws, projectID int64) (toggl.Project, error) {
	for _, project := range f.projects {
		if project.ID == projectID {
			return project, nil
		}
	}
	return toggl.Project{}, fmt.Errorf("toggl project %d: %w", projectID, toggl.ErrNotFound)
}

func (f *fakeSource) StreamReports(ctx context.Context, ws int64, since, until time.Time, fn toggl.PageFunc) error {
	for _, page := range f.pages {
		if err := fn(ctx, page, len(page)); err != nil {
			return err
		}
	}
	return fn(ctx, nil, 0)
}

type taskCall struct {
	projectID string
	name      string
	estimate  string
}

type fakeTarget struct {
	Target

	mu            sync.Mutex
	users         []clockify.User
	admin         string
	fallback      string
	clients       []clockify.Client
	projects      []clockify.Project
	forbidden     bool
	added         map[string][]string
	addedProjects []clockify.NewProject
	addedTasks    []taskCall
	archived      []string
	submitted     []*clockify.TimeEntry
	// existing holds descriptions already present on Clockify.
	existing      map[string]bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		users: []clockify.User{
			{ID: "u-alice", Name: "Alice", Email: "alice@example.com"},
			{ID: "u-carol", Name: "Carol Jones", Email: "carol@example.com"},
		},
		admin:    "admin@example.com",
		added:    map[string][]string{},
		existing: map[string]bool{},
	}
}

func (f *fakeTarget) WorkspaceID(name string) (string, error) {
	if name != "Acme" {
		return "", fmt.Errorf("workspace %q: %w", name, clockify.ErrNotFound)
	}
	return "ws1", nil
}

func (f *fakeTarget) FallbackEmail() string { return f.fallback }

func (f *fakeTarget) Clients(ctx context.Context, ws string) ([]clockify.Client, error) {
	return f.clients, nil
}

func (f *fakeTarget) Projects(ctx context.Context, ws string) ([]clockify.Project, error) {
	return f.projects, nil
}

func (f *fakeTarget) ProjectID(ctx context.Context, ws, name string, clientName *string) (string, error) {
	for _, project := range f.projects {
		if project.Name == name && project.ClientName == derefString(clientName) {
			return project.ID, nil
		}
	}
	return "", fmt.Errorf("project %q: %w", name, clockify.ErrNotFound)
}

func (f *fakeTarget) ProjectByID(ctx context.Context, ws, id string) (clockify.Project, error) {
	for _, project := range f.projects {
		if project.ID == id {
			return project, nil
		}
	}
	return clockify.Project{}, fmt.Errorf("project id %s: %w", id, clockify.ErrNotFound)
}

func (f *fakeTarget) UserIDByEmail(ctx context.Context, ws, email string) (string, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user.ID, nil
		}
	}
	return "", fmt.Errorf("user %s: %w", email, clockify.ErrNotFound)
}

func (f *fakeTarget) UserIDByName(ctx context.Context, ws, name string) (string, error) {
	for _, user := range f.users {
		if user.Name == name {
			return user.ID, nil
		}
	}
	return "", fmt.Errorf("user named %q: %w", name, clockify.ErrNotFound)
}

func (f *fakeTarget) EmailByUserID(ctx context.Context, ws, id string) (string, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user.Email, nil
		}
	}
	return "", fmt.Errorf("user id %s: %w", id, clockify.ErrNotFound)
}

func (f *fakeTarget) addNamed(kind, name string) clockify.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.added[kind] {
		if existing == name {
			return clockify.OutcomeAlreadyExists
		}
	}
	f.added[kind] = append(f.added[kind], name)
	return clockify.OutcomeCreated
}

func (f *fakeTarget) AddClient(ctx context.Context, ws, name string) (clockify.Outcome, error) {
	return f.addNamed("client", name), nil
}

func (f *fakeTarget) AddTag(ctx context.Context, ws, name string) (clockify.Outcome, error) {
	return f.addNamed("tag", name), nil
}

func (f *fakeTarget) AddUserGroup(ctx context.Context, ws, name string) (clockify.Outcome, error) {
	return f.addNamed("group", name), nil
}

func (f *fakeTarget) AddProject(ctx context.Context, ws string, project clockify.NewProject) (clockify.Outcome, error) {
	if f.forbidden {
		return clockify.OutcomeForbidden, &clockify.PermissionError{Action: "create", Project: project.Name, Email: f.actingAs(project)}
	}
	f.addedProjects = append(f.addedProjects, project)
	return clockify.OutcomeCreated, nil
}

// actingAs mirrors the real client: managers without a key fall back to admin.
func (f *fakeTarget) actingAs(project clockify.NewProject) string {
	if project.Manager == "" {
		return f.admin
	}
	return project.Manager
}

func (f *fakeTarget) AddTask(ctx context.Context, ws, projectID, name, estimate string) (clockify.Outcome, error) {
	f.addedTasks = append(f.addedTasks, taskCall{projectID: projectID, name: name, estimate: estimate})
	return clockify.OutcomeCreated, nil
}

func (f *fakeTarget) ArchiveProject(ctx context.Context, ws string, project clockify.Project) error {
	f.archived = append(f.archived, project.ID)
	return nil
}

func (f *fakeTarget) AddEntries(ctx context.Context, entries []*clockify.TimeEntry) []clockify.EntryResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]clockify.EntryResult, 0, len(entries))
	for _, entry := range entries {
		f.submitted = append(f.submitted, entry)
		result := clockify.EntryResult{Entry: entry, State: clockify.StateCreated, Created: &clockify.RemoteEntry{ID: "e-" + entry.Description}}
		if f.existing[entry.Description] {
			result = clockify.EntryResult{Entry: entry, State: clockify.StateDuplicate}
		}
		f.existing[entry.Description] = true
		results = append(results, result)
	}
	return results
}

type fakeRecorder struct {
	phases  []journal.PhaseRecord
	entries []journal.EntryRecord
}

func (r *fakeRecorder) RecordPhase(ctx context.Context, rec journal.PhaseRecord) error {
	r.phases = append(r.phases, rec)
	return nil
}

func (r *fakeRecorder) RecordEntries(ctx context.Context, records []journal.EntryRecord) error {
	r.entries = append(r.entries, records...)
	return nil
}

func newTestMigrator(source *fakeSource, target *fakeTarget, options Options, recorder Recorder) *Migrator {
	return New(source, target, options, recorder, slog.New(slog.DiscardHandler))
}

func acme() workspace {
	return workspace{name: "Acme", togglID: togglWS, targetID: "ws1"}
}

func strPtr(value string) *string {
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

// Package migrator copies a Toggl workspace into the Clockify workspace of
// the same name in seven phases: clients, tags, groups, projects, tasks,
// time entries and archiving.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"toggl2clockify/clockify"
	"toggl2clockify/journal"
	"toggl2clockify/toggl"
)

var ErrUserNotResolvable = errors.New("toggl user cannot be mapped to a clockify user")

// Source is the read side of the migration.
type Source interface {
	Workspaces() []toggl.Workspace
	WorkspaceID(name string) (int64, error)
	Users(ctx context.Context, workspaceID int64) ([]toggl.User, error)
	Clients(ctx context.Context, workspaceID int64) ([]toggl.Client, error)
	Projects(ctx context.Context, workspaceID int64) ([]toggl.Project, error)
	Tags(ctx context.Context, workspaceID int64) ([]toggl.Tag, error)
	Groups(ctx context.Context, workspaceID int64) ([]toggl.Group, error)
	Tasks(ctx context.Context, workspaceID int64) ([]toggl.Task, error)
	ProjectUsers(ctx context.Context, projectID int64) ([]toggl.ProjectUser, error)
	ProjectGroups(ctx context.Context, projectID int64) ([]toggl.ProjectGroup, error)
	UserEmail(ctx context.Context, workspaceID, userID int64) (string, error)
	Username(ctx context.Context, workspaceID, userID int64) (string, error)
	GroupName(ctx context.Context, workspaceID, groupID int64) (string, error)
	ClientName(ctx context.Context, workspaceID, clientID int64, nullOK bool) (string, error)
	ProjectByID(ctx context.Context, workspaceID, projectID int64) (toggl.Project, error)
	StreamReports(ctx context.Context, workspaceID int64, since, until time.Time, fn toggl.PageFunc) error
}

// Target is the write side of the migration.
type Target interface {
	WorkspaceID(name string) (string, error)
	FallbackEmail() string
	Clients(ctx context.Context, workspaceID string) ([]clockify.Client, error)
	Projects(ctx context.Context, workspaceID string) ([]clockify.Project, error)
	ProjectID(ctx context.Context, workspaceID, name string, clientName *string) (string, error)
	ProjectByID(ctx context.Context, workspaceID, id string) (clockify.Project, error)
	UserIDByEmail(ctx context.Context, workspaceID, email string) (string, error)
	UserIDByName(ctx context.Context, workspaceID, name string) (string, error)
	EmailByUserID(ctx context.Context, workspaceID, id string) (string, error)
	AddClient(ctx context.Context, workspaceID, name string) (clockify.Outcome, error)
	AddTag(ctx context.Context, workspaceID, name string) (clockify.Outcome, error)
	AddUserGroup(ctx context.Context, workspaceID, name string) (clockify.Outcome, error)
	AddProject(ctx context.Context, workspaceID string, project clockify.NewProject) (clockify.Outcome, error)
	AddTask(ctx context.Context, workspaceID, projectID, name, estimate string) (clockify.Outcome, error)
	ArchiveProject(ctx context.Context, workspaceID string, project clockify.Project) error
	AddEntries(ctx context.Context, entries []*clockify.TimeEntry) []clockify.EntryResult
	DeleteUserEntries(ctx context.Context, workspaceID, email string) (int, error)
	WipeWorkspace(ctx context.Context, workspaceID string) error
}

// Recorder receives phase results and entry outcomes. *journal.Run
// implements it.
type Recorder interface {
	RecordPhase(ctx context.Context, rec journal.PhaseRecord) error
	RecordEntries(ctx context.Context, records []journal.EntryRecord) error
}

type Options struct {
	Since            time.Time
	// Until defaults to now.
	Until            time.Time
	SkipInvalidUsers bool
	SkipClients      bool
	SkipTags         bool
	SkipGroups       bool
	SkipProjects     bool
	SkipTasks        bool
	SkipEntries      bool
	Archive          bool
}

type Migrator struct {
	source   Source
	target   Target
	recorder Recorder
	options  Options
	log      *slog.Logger
	now      func() time.Time
}

func New(source Source, target Target, options Options, recorder Recorder, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		source:   source,
		target:   target,
		recorder: recorder,
		options:  options,
		log:      logger,
		now:      time.Now,
	}
}

// workspace carries the ids of one workspace pair under migration.
type workspace struct {
	name     string
	togglID  int64
	targetID string
}

// WorkspaceNames returns configured, or every Toggl workspace the token
// administers when configured is empty.
func (m *Migrator) WorkspaceNames(configured []string) []string {
	names := make([]string, 0, len(configured))
	for _, name := range configured {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		return names
	}
	for _, ws := range m.source.Workspaces() {
		names = append(names, ws.Name)
	}
	m.log.Info("no workspaces configured, migrating all toggl workspaces", slog.Any("workspaces", names))
	return names
}

// Run migrates every workspace in turn. A failing workspace aborts the run.
func (m *Migrator) Run(ctx context.Context, workspaces []string) error {
	names := m.WorkspaceNames(workspaces)
	for i, name := range names {
		m.log.Info(fmt.Sprintf("Starting to import workspace '%s' (%d of %d)", name, i+1, len(names)))
		if err := m.MigrateWorkspace(ctx, name); err != nil {
			return fmt.Errorf("workspace %q: %w", name, err)
		}
	}
	return nil
}

func (m *Migrator) resolveWorkspace(name string) (workspace, error) {
	togglID, err := m.source.WorkspaceID(name)
	if err != nil {
		return workspace{}, err
	}
	targetID, err := m.target.WorkspaceID(name)
	if err != nil {
		return workspace{}, err
	}
	return workspace{name: name, togglID: togglID, targetID: targetID}, nil
}

// MigrateWorkspace runs the seven phases for one workspace.
func (m *Migrator) MigrateWorkspace(ctx context.Context, name string) error {
	ws, err := m.resolveWorkspace(name)
	if err != nil {
		return err
	}

	until := m.options.Until
	if until.IsZero() {
		until = m.now()
	}
	entriesTitle := fmt.Sprintf("Import time entries from %s until %s", m.options.Since.Format(time.RFC3339), until.Format(time.RFC3339))

	phases := []phase{
		{number: PhaseClients, title: "Import clients", skip: m.options.SkipClients, run: m.syncClients},
		{number: PhaseTags, title: "Import tags", skip: m.options.SkipTags, run: m.syncTags},
		{number: PhaseGroups, title: "Import groups", skip: m.options.SkipGroups, run: m.syncGroups},
		{number: PhaseProjects, title: "Import projects", skip: m.options.SkipProjects, run: m.syncProjects},
		{number: PhaseTasks, title: "Import tasks", skip: m.options.SkipTasks, run: m.syncTasks},
		{number: PhaseEntries, title: entriesTitle, skip: m.options.SkipEntries, run: func(ctx context.Context, ws workspace) (PhaseStatus, error) {
			return m.syncEntries(ctx, ws, m.options.Since, until)
		}},
		{number: PhaseArchive, title: "Archive projects", skip: !m.options.Archive, run: m.archiveProjects},
	}
	for _, p := range phases {
		if err := m.runPhase(ctx, ws, p); err != nil {
			return err
		}
	}
	m.log.Info(fmt.Sprintf("Finished importing workspace '%s'", ws.name))
	return nil
}

func (m *Migrator) record(ctx context.Context, ws workspace, p phase, status PhaseStatus) {
	if m.recorder == nil {
		return
	}
	err := m.recorder.RecordPhase(ctx, journal.PhaseRecord{
		Workspace: ws.name,
		Phase:     int(p.number),
		Name:      p.title,
		Skipped:   p.skip,
		Entries:   status.Entries,
		OK:        status.OK,
		Skips:     status.Skipped,
		Failed:    status.Failed,
	})
	if err != nil {
		m.log.Warn("journal phase record failed", slog.Any("error", err))
	}
}

func (m *Migrator) recordEntries(ctx context.Context, ws workspace, results []clockify.EntryResult) {
	if m.recorder == nil || len(results) == 0 {
		return
	}
	records := make([]journal.EntryRecord, 0, len(results))
	for _, result := range results {
		rec := journal.EntryRecord{
			Workspace:   ws.name,
			Email:       result.Entry.Email,
			Start:       result.Entry.Start,
			Description: result.Entry.Description,
			Project:     projectLabel(result.Entry.ProjectName, result.Entry.ClientName),
			Outcome:     result.Outcome().String(),
			State:       result.State.String(),
		}
		if result.Created != nil {
			rec.RemoteID = result.Created.ID
		}
		if result.Err != nil {
			rec.Error = result.Err.Error()
		}
		records = append(records, rec)
	}
	if err := m.recorder.RecordEntries(ctx, records); err != nil {
		m.log.Warn("journal entry records failed", slog.Any("error", err))
	}
}

func projectLabel(project, client *string) string {
	if project == nil {
		return ""
	}
	if client == nil || *client == "" {
		return *project
	}
	return *project + "|" + *client
}

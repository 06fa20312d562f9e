package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"toggl2clockify/clockify"
	"toggl2clockify/internal/timeutil"
	"toggl2clockify/toggl"
)

// syncClients creates the Toggl clients whose names Clockify lacks.
func (m *Migrator) syncClients(ctx context.Context, ws workspace) (PhaseStatus, error) {
	var status PhaseStatus
	clients, err := m.source.Clients(ctx, ws.togglID)
	if err != nil {
		return status, err
	}
	existing, err := m.target.Clients(ctx, ws.targetID)
	if err != nil {
		return status, err
	}
	m.log.Info("toggl clients found", slog.Int("count", len(clients)))

	known := make(map[string]bool, len(existing))
	for _, client := range existing {
		known[client.Name] = true
	}
	pending := make([]toggl.Client, 0, len(clients))
	for _, client := range clients {
		if !known[client.Name] {
			pending = append(pending, client)
		}
	}

	status.Entries = len(pending)
	for i, client := range pending {
		m.log.Info(fmt.Sprintf("Adding client %s (%d of %d)", client.Name, i+1, len(pending)))
		outcome, err := m.target.AddClient(ctx, ws.targetID, client.Name)
		m.logOutcome("client", client.Name, outcome, err)
		status.Tally(outcome)
	}
	return status, nil
}

func (m *Migrator) syncTags(ctx context.Context, ws workspace) (PhaseStatus, error) {
	var status PhaseStatus
	tags, err := m.source.Tags(ctx, ws.togglID)
	if err != nil {
		return status, err
	}
	status.Entries = len(tags)
	for i, tag := range tags {
		m.log.Info(fmt.Sprintf("adding tag %s (%d of %d tags)", tag.Name, i+1, len(tags)))
		outcome, err := m.target.AddTag(ctx, ws.targetID, tag.Name)
		m.logOutcome("tag", tag.Name, outcome, err)
		status.Tally(outcome)
	}
	return status, nil
}

func (m *Migrator) syncGroups(ctx context.Context, ws workspace) (PhaseStatus, error) {
	var status PhaseStatus
	groups, err := m.source.Groups(ctx, ws.togglID)
	if err != nil {
		return status, err
	}
	status.Entries = len(groups)
	for i, group := range groups {
		m.log.Info(fmt.Sprintf("adding group %s (%d of %d groups)", group.Name, i+1, len(groups)))
		outcome, err := m.target.AddUserGroup(ctx, ws.targetID, group.Name)
		m.logOutcome("user group", group.Name, outcome, err)
		status.Tally(outcome)
	}
	return status, nil
}

// syncProjects creates the Toggl projects missing on Clockify together with
// their memberships and group assignments. A project Clockify refuses with
// 403 aborts the phase.
func (m *Migrator) syncProjects(ctx context.Context, ws workspace) (PhaseStatus, error) {
	var status PhaseStatus
	projects, err := m.source.Projects(ctx, ws.togglID)
	if err != nil {
		return status, err
	}
	m.log.Info("toggl projects found", slog.Int("count", len(projects)))
	existing, err := m.target.Projects(ctx, ws.targetID)
	if err != nil {
		return status, err
	}
	type projectKey struct{ name, client string }
	known := make(map[projectKey]bool, len(existing))
	for _, project := range existing {
		known[projectKey{project.Name, project.ClientName}] = true
	}

	pending := make([]clockify.NewProject, 0, len(projects))
	for _, source := range projects {
		clientName, err := m.projectClientName(ctx, ws, source)
		if err != nil {
			return status, err
		}
		if known[projectKey{source.Name, derefString(clientName)}] {
			continue
		}
		project, err := m.ingestProject(ctx, ws, source, clientName)
		if err != nil {
			m.log.Warn("project skipped", slog.String("project", source.Name), slog.Any("error", err))
			status.Entries++
			status.Failed++
			continue
		}
		pending = append(pending, project)
	}

	status.Entries += len(pending)
	for i, project := range pending {
		m.log.Info(fmt.Sprintf("Adding project %s (%d of %d projects)", projectLabel(&project.Name, project.ClientName), i+1, len(pending)))
		outcome, err := m.target.AddProject(ctx, ws.targetID, project)
		if errors.Is(err, clockify.ErrPermissionDenied) {
			refused := deniedIdentity(err)
			m.log.Error(fmt.Sprintf(
				"Could not add project %s. Clockify refused %s, who acted as project admin. Grant admin rights to %s.",
				project.Name, refused, refused,
			))
			status.Failed++
			return status, err
		}
		m.logOutcome("project", project.Name, outcome, err)
		status.Tally(outcome)
	}
	return status, nil
}

// deniedIdentity names the Clockify user whose api key was refused.
func deniedIdentity(err error) string {
	var denied *clockify.PermissionError
	if errors.As(err, &denied) && denied.Email != "" {
		return denied.Email
	}
	return "the acting user"
}

func (m *Migrator) projectClientName(ctx context.Context, ws workspace, project toggl.Project) (*string, error) {
	if project.ClientID == nil {
		return nil, nil
	}
	name, err := m.source.ClientName(ctx, ws.togglID, *project.ClientID, true)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	return &name, nil
}

// ingestProject translates a Toggl project into Clockify names and ids.
func (m *Migrator) ingestProject(ctx context.Context, ws workspace, source toggl.Project, clientName *string) (clockify.NewProject, error) {
	project := clockify.NewProject{
		Name:       source.Name,
		ClientName: clientName,
		Public:     !source.IsPrivate,
		Billable:   source.Billable,
		Color:      source.HexColor,
		HourlyRate: hourlyRate(source.Rate),
	}

	projectGroups, err := m.source.ProjectGroups(ctx, source.ID)
	if err != nil {
		return project, err
	}
	for _, pg := range projectGroups {
		name, err := m.source.GroupName(ctx, ws.togglID, pg.GroupID)
		if err != nil {
			return project, err
		}
		project.Groups = append(project.Groups, name)
	}

	members, err := m.source.ProjectUsers(ctx, source.ID)
	if err != nil {
		return project, err
	}
	for _, member := range members {
		email, err := m.source.UserEmail(ctx, ws.togglID, member.UserID)
		if err != nil {
			return project, err
		}
		userID, err := m.target.UserIDByEmail(ctx, ws.targetID, email)
		if err != nil {
			return project, fmt.Errorf("add %s to project %q: %w", email, source.Name, err)
		}
		membership := clockify.ProjectMembership(userID, member.Manager)
		membership.HourlyRate = hourlyRate(member.Rate)
		project.Memberships = append(project.Memberships, membership)
		if member.Manager && project.Manager == "" {
			project.Manager = email
		}
	}
	return project, nil
}

// hourlyRate converts a Toggl rate into Clockify's amount in cents.
func hourlyRate(rate *float64) *clockify.HourlyRate {
	if rate == nil || *rate <= 0 {
		return nil
	}
	return &clockify.HourlyRate{Amount: int64(math.Round(*rate * 100))}
}

// syncTasks creates Toggl tasks under the Clockify project with the same
// project and client name. User assignments are not copied.
func (m *Migrator) syncTasks(ctx context.Context, ws workspace) (PhaseStatus, error) {
	var status PhaseStatus
	tasks, err := m.source.Tasks(ctx, ws.togglID)
	if err != nil {
		return status, err
	}
	status.Entries = len(tasks)
	for i, task := range tasks {
		m.log.Info(fmt.Sprintf("Adding task %s (%d of %d tasks)", task.Name, i+1, len(tasks)))
		projectID, err := m.matchProject(ctx, ws, task.ProjectID)
		if err != nil {
			m.log.Warn("task project not found", slog.String("task", task.Name), slog.Any("error", err))
			status.Failed++
			continue
		}
		outcome, err := m.target.AddTask(ctx, ws.targetID, projectID, task.Name, timeutil.ISODuration(task.EstimatedSeconds))
		m.logOutcome("task", task.Name, outcome, err)
		status.Tally(outcome)
	}
	return status, nil
}

// matchProject maps a Toggl project id to the Clockify project id.
func (m *Migrator) matchProject(ctx context.Context, ws workspace, togglProjectID int64) (string, error) {
	project, err := m.source.ProjectByID(ctx, ws.togglID, togglProjectID)
	if err != nil {
		return "", err
	}
	clientName, err := m.projectClientName(ctx, ws, project)
	if err != nil {
		return "", err
	}
	return m.target.ProjectID(ctx, ws.targetID, project.Name, clientName)
}

// archiveProjects archives on Clockify every project inactive on Toggl.
func (m *Migrator) archiveProjects(ctx context.Context, ws workspace) (PhaseStatus, error) {
	var status PhaseStatus
	projects, err := m.source.Projects(ctx, ws.togglID)
	if err != nil {
		return status, err
	}
	status.Entries = len(projects)
	for i, project := range projects {
		clientName, err := m.projectClientName(ctx, ws, project)
		if err != nil {
			return status, err
		}
		label := projectLabel(&project.Name, clientName)
		if project.Active {
			m.log.Info(fmt.Sprintf("project %s is still active, skipping (%d of %d)", label, i+1, len(projects)))
			status.Skipped++
			continue
		}

		m.log.Info(fmt.Sprintf("project %s is not active, trying to archive (%d of %d)", label, i+1, len(projects)))
		if err := m.archive(ctx, ws, project.Name, clientName); err != nil {
			m.log.Warn("archive failed", slog.String("project", label), slog.Any("error", err))
			status.Failed++
			continue
		}
		status.OK++
	}
	return status, nil
}

func (m *Migrator) archive(ctx context.Context, ws workspace, name string, clientName *string) error {
	id, err := m.target.ProjectID(ctx, ws.targetID, name, clientName)
	if err != nil {
		return err
	}
	project, err := m.target.ProjectByID(ctx, ws.targetID, id)
	if err != nil {
		return err
	}
	return m.target.ArchiveProject(ctx, ws.targetID, project)
}

func (m *Migrator) logOutcome(kind, name string, outcome clockify.Outcome, err error) {
	switch {
	case outcome == clockify.OutcomeAlreadyExists:
		m.log.Info(fmt.Sprintf("%s %s already exists, skip...", kind, name))
	case err != nil || outcome != clockify.OutcomeCreated:
		m.log.Warn(kind+" not created", slog.String("name", name), slog.String("outcome", outcome.String()), slog.Any("error", err))
	}
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

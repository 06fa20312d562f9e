package clockify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"toggl2clockify/gateway"
)

// Outcome classifies a create call.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeAlreadyExists
	OutcomeFailed
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExists:
		return "already_exists"
	case OutcomeFailed:
		return "failed"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// classifyCreate maps a create response. Clockify answers 400 when the name
// is already taken.
func classifyCreate(method, endpointPath string, resp *gateway.Response) (Outcome, error) {
	switch {
	case resp.OK():
		return OutcomeCreated, nil
	case resp.StatusCode == http.StatusBadRequest:
		return OutcomeAlreadyExists, nil
	case resp.StatusCode == http.StatusForbidden:
		return OutcomeForbidden, &StatusError{Method: method, Path: endpointPath, StatusCode: resp.StatusCode, Body: resp.Snippet()}
	default:
		return OutcomeFailed, &StatusError{Method: method, Path: endpointPath, StatusCode: resp.StatusCode, Body: resp.Snippet()}
	}
}

func (c *HTTPClient) create(ctx context.Context, endpointPath string, as Identity, body any) (Outcome, error) {
	resp, err := c.do(ctx, http.MethodPost, endpointPath, as, nil, body)
	if err != nil {
		return OutcomeFailed, err
	}
	return classifyCreate(http.MethodPost, endpointPath, resp)
}

// createSimple treats a forbidden answer like any other failure.
func (c *HTTPClient) createSimple(ctx context.Context, endpointPath string, body any, invalidate func()) (Outcome, error) {
	outcome, err := c.create(ctx, endpointPath, c.admin(), body)
	if outcome == OutcomeForbidden {
		outcome = OutcomeFailed
	}
	if outcome == OutcomeCreated {
		invalidate()
	}
	return outcome, err
}

func (c *HTTPClient) AddClient(ctx context.Context, workspaceID, name string) (Outcome, error) {
	return c.createSimple(ctx, fmt.Sprintf("/workspaces/%s/clients", workspaceID), nameRequest{Name: name}, c.clients.Invalidate)
}

func (c *HTTPClient) AddTag(ctx context.Context, workspaceID, name string) (Outcome, error) {
	return c.createSimple(ctx, fmt.Sprintf("/workspaces/%s/tags", workspaceID), nameRequest{Name: name}, c.tags.Invalidate)
}

func (c *HTTPClient) AddUserGroup(ctx context.Context, workspaceID, name string) (Outcome, error) {
	return c.createSimple(ctx, fmt.Sprintf("/workspaces/%s/user-groups", workspaceID), nameRequest{Name: name}, c.groups.Invalidate)
}

// AddProject creates the project with the manager's api key, or the admin's
// when the project has no manager. A 403 yields OutcomeForbidden wrapping
// ErrPermissionDenied.
func (c *HTTPClient) AddProject(ctx context.Context, workspaceID string, project NewProject) (Outcome, error) {
	as, err := c.projectCreator(project)
	if err != nil {
		return OutcomeFailed, err
	}

	body := projectRequest{
		Name:        project.Name,
		IsPublic:    project.Public,
		Billable:    project.Billable,
		Color:       project.Color,
		HourlyRate:  project.HourlyRate,
		Memberships: project.Memberships,
	}
	if project.ClientName != nil {
		clientID, err := c.ClientID(ctx, workspaceID, *project.ClientName, true)
		if err != nil {
			return OutcomeFailed, err
		}
		body.ClientID = clientID
	}

	endpointPath := fmt.Sprintf("/workspaces/%s/projects", workspaceID)
	outcome, err := c.create(ctx, endpointPath, as, body)
	switch outcome {
	case OutcomeForbidden:
		return outcome, &PermissionError{Action: "create", Project: project.Name, Email: as.Email}
	case OutcomeCreated:
		c.projects.Invalidate()
	default:
		return outcome, err
	}

	if len(project.Groups) == 0 {
		return OutcomeCreated, nil
	}
	projectID, err := c.ProjectID(ctx, workspaceID, project.Name, project.ClientName)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("locate created project %q: %w", project.Name, err)
	}
	if err := c.addTeam(ctx, workspaceID, projectID, as, project); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeCreated, nil
}

func (c *HTTPClient) projectCreator(project NewProject) (Identity, error) {
	if project.Manager == "" {
		c.log.Warn("project has no manager, creating as admin",
			slog.String("project", project.Name),
			slog.String("admin", c.adminEmail),
		)
		return c.admin(), nil
	}
	as, err := c.IdentityByEmail(project.Manager)
	if err != nil {
		c.log.Warn("project manager has no api key, creating as admin",
			slog.String("project", project.Name),
			slog.String("manager", project.Manager),
		)
		return c.admin(), nil
	}
	return as, nil
}

func (c *HTTPClient) addTeam(ctx context.Context, workspaceID, projectID string, as Identity, project NewProject) error {
	team := teamRequest{
		UserIDs:      make([]string, 0, len(project.Memberships)),
		UserGroupIDs: make([]string, 0, len(project.Groups)),
	}
	for _, membership := range project.Memberships {
		team.UserIDs = append(team.UserIDs, membership.UserID)
	}
	for _, groupName := range project.Groups {
		groupID, err := c.UserGroupID(ctx, workspaceID, groupName)
		if err != nil {
			return fmt.Errorf("assign groups to project %q: %w", project.Name, err)
		}
		team.UserGroupIDs = append(team.UserGroupIDs, groupID)
	}

	endpointPath := fmt.Sprintf("/workspaces/%s/projects/%s/team", workspaceID, projectID)
	outcome, err := c.create(ctx, endpointPath, as, team)
	switch outcome {
	case OutcomeCreated, OutcomeAlreadyExists:
		return nil
	case OutcomeForbidden:
		return &PermissionError{Action: "assign groups to", Project: project.Name, Email: as.Email}
	default:
		return fmt.Errorf("assign groups to project %q: %w", project.Name, err)
	}
}

// AddTask creates a task; estimate is an ISO-8601 duration or "".
func (c *HTTPClient) AddTask(ctx context.Context, workspaceID, projectID, name, estimate string) (Outcome, error) {
	endpointPath := fmt.Sprintf("/workspaces/%s/projects/%s/tasks", workspaceID, projectID)
	return c.createSimple(ctx, endpointPath, taskRequest{Name: name, ProjectID: projectID, Estimate: estimate}, func() {})
}

func (c *HTTPClient) ArchiveProject(ctx context.Context, workspaceID string, project Project) error {
	endpointPath := fmt.Sprintf("/workspaces/%s/projects/%s", workspaceID, project.ID)
	if err := c.doJSON(ctx, http.MethodPut, endpointPath, c.admin(), nil, projectUpdate{Name: project.Name, Archived: true}, nil); err != nil {
		return fmt.Errorf("archive project %q: %w", project.Name, err)
	}
	c.projects.Invalidate()
	return nil
}

// DeleteProject archives the project first; Clockify refuses to delete
// active projects.
func (c *HTTPClient) DeleteProject(ctx context.Context, workspaceID string, project Project) error {
	if !project.Archived {
		if err := c.ArchiveProject(ctx, workspaceID, project); err != nil {
			return err
		}
	}
	endpointPath := fmt.Sprintf("/workspaces/%s/projects/%s", workspaceID, project.ID)
	if err := c.doJSON(ctx, http.MethodDelete, endpointPath, c.admin(), nil, nil, nil); err != nil {
		return fmt.Errorf("delete project %q: %w", project.Name, err)
	}
	c.projects.Invalidate()
	return nil
}

func (c *HTTPClient) DeleteClient(ctx context.Context, workspaceID, clientID string) error {
	endpointPath := fmt.Sprintf("/workspaces/%s/clients/%s", workspaceID, clientID)
	if err := c.doJSON(ctx, http.MethodDelete, endpointPath, c.admin(), nil, nil, nil); err != nil {
		return fmt.Errorf("delete client %s: %w", clientID, err)
	}
	c.clients.Invalidate()
	return nil
}

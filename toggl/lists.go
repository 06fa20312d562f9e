package toggl

import (
	"context"
	"fmt"
)

func (c *HTTPClient) Users(ctx context.Context, workspaceID int64) ([]User, error) {
	return c.users.Get(ctx, wsKey(workspaceID))
}

func (c *HTTPClient) Clients(ctx context.Context, workspaceID int64) ([]Client, error) {
	return c.clients.Get(ctx, wsKey(workspaceID))
}

// Projects includes archived projects.
func (c *HTTPClient) Projects(ctx context.Context, workspaceID int64) ([]Project, error) {
	return c.projects.Get(ctx, wsKey(workspaceID))
}

func (c *HTTPClient) Tags(ctx context.Context, workspaceID int64) ([]Tag, error) {
	return c.tags.Get(ctx, wsKey(workspaceID))
}

func (c *HTTPClient) Groups(ctx context.Context, workspaceID int64) ([]Group, error) {
	return c.groups.Get(ctx, wsKey(workspaceID))
}

func (c *HTTPClient) Tasks(ctx context.Context, workspaceID int64) ([]Task, error) {
	return c.tasks.Get(ctx, wsKey(workspaceID))
}

func (c *HTTPClient) ProjectUsers(ctx context.Context, projectID int64) ([]ProjectUser, error) {
	var out []ProjectUser
	if err := c.getJSON(ctx, fmt.Sprintf("%s/projects/%d/project_users", c.baseURL, projectID), nil, &out); err != nil {
		return nil, fmt.Errorf("list users of project %d: %w", projectID, err)
	}
	return out, nil
}

func (c *HTTPClient) ProjectGroups(ctx context.Context, projectID int64) ([]ProjectGroup, error) {
	var out []ProjectGroup
	if err := c.getJSON(ctx, fmt.Sprintf("%s/projects/%d/project_groups", c.baseURL, projectID), nil, &out); err != nil {
		return nil, fmt.Errorf("list groups of project %d: %w", projectID, err)
	}
	return out, nil
}

func (c *HTTPClient) UserEmail(ctx context.Context, workspaceID, userID int64) (string, error) {
	users, err := c.Users(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	for _, user := range users {
		if user.ID == userID {
			return user.Email, nil
		}
	}
	return "", fmt.Errorf("toggl user %d: %w", userID, ErrNotFound)
}

func (c *HTTPClient) Username(ctx context.Context, workspaceID, userID int64) (string, error) {
	users, err := c.Users(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	for _, user := range users {
		if user.ID == userID {
			return user.Fullname, nil
		}
	}
	return "", fmt.Errorf("toggl user %d: %w", userID, ErrNotFound)
}

// ClientName returns "" for unknown ids when nullOK is set.
func (c *HTTPClient) ClientName(ctx context.Context, workspaceID, clientID int64, nullOK bool) (string, error) {
	clients, err := c.Clients(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	for _, client := range clients {
		if client.ID == clientID {
			return client.Name, nil
		}
	}
	if nullOK {
		return "", nil
	}
	return "", fmt.Errorf("toggl client %d: %w", clientID, ErrNotFound)
}

func (c *HTTPClient) GroupName(ctx context.Context, workspaceID, groupID int64) (string, error) {
	groups, err := c.Groups(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	for _, group := range groups {
		if group.ID == groupID {
			return group.Name, nil
		}
	}
	return "", fmt.Errorf("toggl group %d: %w", groupID, ErrNotFound)
}

func (c *HTTPClient) ProjectByID(ctx context.Context, workspaceID, projectID int64) (Project, error) {
	projects, err := c.Projects(ctx, workspaceID)
	if err != nil {
		return Project{}, err
	}
	for _, project := range projects {
		if project.ID == projectID {
			return project, nil
		}
	}
	return Project{}, fmt.Errorf("toggl project %d: %w", projectID, ErrNotFound)
}

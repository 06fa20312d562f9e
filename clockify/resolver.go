package clockify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func find[T any](items []T, match func(T) bool) (T, bool) {
	for _, item := range items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func derefName(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func (c *HTTPClient) Projects(ctx context.Context, workspaceID string) ([]Project, error) {
	return c.projects.Get(ctx, workspaceID)
}

// ProjectID matches on project name and client name; a nil client matches
// projects without a client.
func (c *HTTPClient) ProjectID(ctx context.Context, workspaceID, name string, clientName *string) (string, error) {
	projects, err := c.Projects(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	client := derefName(clientName)
	project, ok := find(projects, func(p Project) bool { return p.Name == name && p.ClientName == client })
	if !ok {
		return "", fmt.Errorf("project %q (client %q): %w", name, client, ErrNotFound)
	}
	return project.ID, nil
}

func (c *HTTPClient) ProjectByID(ctx context.Context, workspaceID, id string) (Project, error) {
	projects, err := c.Projects(ctx, workspaceID)
	if err != nil {
		return Project{}, err
	}
	project, ok := find(projects, func(p Project) bool { return p.ID == id })
	if !ok {
		return Project{}, fmt.Errorf("project id %s: %w", id, ErrNotFound)
	}
	return project, nil
}

func (c *HTTPClient) Clients(ctx context.Context, workspaceID string) ([]Client, error) {
	return c.clients.Get(ctx, workspaceID)
}

// ClientID returns "" instead of ErrNotFound when nullOK is set.
func (c *HTTPClient) ClientID(ctx context.Context, workspaceID, name string, nullOK bool) (string, error) {
	clients, err := c.Clients(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	client, ok := find(clients, func(cl Client) bool { return cl.Name == name })
	if !ok {
		if nullOK {
			return "", nil
		}
		return "", fmt.Errorf("client %q: %w", name, ErrNotFound)
	}
	return client.ID, nil
}

func (c *HTTPClient) ClientName(ctx context.Context, workspaceID, id string, nullOK bool) (string, error) {
	clients, err := c.Clients(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	client, ok := find(clients, func(cl Client) bool { return cl.ID == id })
	if !ok {
		if nullOK {
			return "", nil
		}
		return "", fmt.Errorf("client id %s: %w", id, ErrNotFound)
	}
	return client.Name, nil
}

func (c *HTTPClient) Tags(ctx context.Context, workspaceID string) ([]Tag, error) {
	return c.tags.Get(ctx, workspaceID)
}

func (c *HTTPClient) TagID(ctx context.Context, workspaceID, name string) (string, error) {
	tags, err := c.Tags(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	tag, ok := find(tags, func(t Tag) bool { return t.Name == name })
	if !ok {
		return "", fmt.Errorf("tag %q: %w", name, ErrNotFound)
	}
	return tag.ID, nil
}

func (c *HTTPClient) TagName(ctx context.Context, workspaceID, id string) (string, error) {
	tags, err := c.Tags(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	tag, ok := find(tags, func(t Tag) bool { return t.ID == id })
	if !ok {
		return "", fmt.Errorf("tag id %s: %w", id, ErrNotFound)
	}
	return tag.Name, nil
}

// tagNameLookup snapshots the tag list into a lookup usable by Diff.
// Unknown ids map to themselves.
func (c *HTTPClient) tagNameLookup(ctx context.Context, workspaceID string) (func(string) string, error) {
	tags, err := c.Tags(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tags))
	for _, tag := range tags {
		names[tag.ID] = tag.Name
	}
	return func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	}, nil
}

func (c *HTTPClient) UserGroups(ctx context.Context, workspaceID string) ([]UserGroup, error) {
	return c.groups.Get(ctx, workspaceID)
}

func (c *HTTPClient) UserGroupID(ctx context.Context, workspaceID, name string) (string, error) {
	groups, err := c.UserGroups(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	group, ok := find(groups, func(g UserGroup) bool { return g.Name == name })
	if !ok {
		return "", fmt.Errorf("user group %q: %w", name, ErrNotFound)
	}
	return group.ID, nil
}

func (c *HTTPClient) UserGroupName(ctx context.Context, workspaceID, id string) (string, error) {
	groups, err := c.UserGroups(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	group, ok := find(groups, func(g UserGroup) bool { return g.ID == id })
	if !ok {
		return "", fmt.Errorf("user group id %s: %w", id, ErrNotFound)
	}
	return group.Name, nil
}

func (c *HTTPClient) Users(ctx context.Context, workspaceID string) ([]User, error) {
	return c.users.Get(ctx, workspaceID)
}

func (c *HTTPClient) UserIDByEmail(ctx context.Context, workspaceID, email string) (string, error) {
	users, err := c.Users(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	user, ok := find(users, func(u User) bool { return sameEmail(u.Email, email) })
	if !ok {
		return "", fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return user.ID, nil
}

func (c *HTTPClient) UserIDByName(ctx context.Context, workspaceID, name string) (string, error) {
	users, err := c.Users(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	user, ok := find(users, func(u User) bool { return u.Name == name })
	if !ok {
		return "", fmt.Errorf("user named %q: %w", name, ErrNotFound)
	}
	return user.ID, nil
}

func (c *HTTPClient) EmailByUserID(ctx context.Context, workspaceID, id string) (string, error) {
	users, err := c.Users(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	user, ok := find(users, func(u User) bool { return u.ID == id })
	if !ok {
		return "", fmt.Errorf("user id %s: %w", id, ErrNotFound)
	}
	return user.Email, nil
}

// Tasks are not cached; every call lists the project's tasks.
func (c *HTTPClient) Tasks(ctx context.Context, workspaceID, projectID string) ([]Task, error) {
	endpointPath := fmt.Sprintf("/workspaces/%s/projects/%s/tasks", workspaceID, projectID)
	return fetchAllPages(ctx, func(ctx context.Context, page int) ([]Task, error) {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("page-size", strconv.Itoa(pageSize))
		var out []Task
		if err := c.doJSON(ctx, http.MethodGet, endpointPath, c.admin(), query, nil, &out); err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		return out, nil
	}, func(t Task) string { return t.ID })
}

func (c *HTTPClient) TaskID(ctx context.Context, workspaceID, projectID, name string) (string, error) {
	tasks, err := c.Tasks(ctx, workspaceID, projectID)
	if err != nil {
		return "", err
	}
	task, ok := find(tasks, func(t Task) bool { return t.Name == name })
	if !ok {
		return "", fmt.Errorf("task %q in project %s: %w", name, projectID, ErrNotFound)
	}
	return task.ID, nil
}

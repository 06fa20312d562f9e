package clockify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"toggl2clockify/gateway"
)

const (
	testWorkspaceID   = "ws1"
	testWorkspaceName = "Acme"
)

// fakeClockify is an in-memory stand-in for the Clockify REST API.
type fakeClockify struct {
	mu sync.Mutex

	keys       map[string]User
	workspaces []Workspace
	members    []User
	projects   []Project
	clients    []Client
	tags       []Tag
	groups     []UserGroup
	tasks      []Task
	entries    []RemoteEntry

	forbidProjects bool
	teams          []teamRequest
	createdBodies  []map[string]any
	calls          map[string]int
	nextID         int
}

func newFakeClockify() *fakeClockify {
	admin := User{ID: "u-admin", Name: "Admin", Email: "admin@example.com", Status: "ACTIVE"}
	alice := User{ID: "u-alice", Name: "Alice", Email: "alice@example.com", Status: "ACTIVE"}
	return &fakeClockify{
		keys: map[string]User{
			"admin-key": admin,
			"alice-key": alice,
		},
		workspaces: []Workspace{{ID: testWorkspaceID, Name: testWorkspaceName}},
		members:    []User{admin, alice, {ID: "u-bob", Name: "Bob", Email: "bob@example.com", Status: "ACTIVE"}},
		projects:   []Project{{ID: "p-internal", Name: "Internal", WorkspaceID: testWorkspaceID}},
		tags:       []Tag{{ID: "t-meeting", Name: "meeting"}, {ID: "t-ops", Name: "ops"}},
		calls:      make(map[string]int),
	}
}

func (f *fakeClockify) Do(r *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	f.calls[r.Method+" "+path]++

	caller, ok := f.keys[r.Header.Get("X-Api-Key")]
	if !ok {
		return jsonStatus(http.StatusUnauthorized, map[string]string{"message": "bad key"}), nil
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && path == "/user":
		return jsonStatus(http.StatusOK, caller), nil
	case r.Method == http.MethodGet && path == "/workspaces":
		return jsonStatus(http.StatusOK, f.workspaces), nil
	case len(parts) == 3 && r.Method == http.MethodGet:
		return f.list(r, parts[2]), nil
	case len(parts) == 3 && r.Method == http.MethodPost:
		return f.create(r, caller, parts[2]), nil
	case len(parts) == 5 && parts[2] == "user" && parts[4] == "time-entries" && r.Method == http.MethodGet:
		return f.userEntries(r, parts[3]), nil
	case len(parts) == 4 && parts[2] == "time-entries" && r.Method == http.MethodDelete:
		return f.deleteEntry(parts[3]), nil
	case len(parts) == 4 && parts[2] == "projects" && r.Method == http.MethodPut:
		var body projectUpdate
		decodeBody(r, &body)
		for i := range f.projects {
			if f.projects[i].ID == parts[3] {
				f.projects[i].Archived = body.Archived
				return jsonStatus(http.StatusOK, f.projects[i]), nil
			}
		}
		return jsonStatus(http.StatusNotFound, nil), nil
	case len(parts) == 4 && parts[2] == "projects" && r.Method == http.MethodDelete:
		for i, project := range f.projects {
			if project.ID != parts[3] {
				continue
			}
			if !project.Archived {
				return jsonStatus(http.StatusBadRequest, map[string]string{"message": "archive first"}), nil
			}
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return jsonStatus(http.StatusOK, project), nil
		}
		return jsonStatus(http.StatusNotFound, nil), nil
	case len(parts) == 4 && parts[2] == "clients" && r.Method == http.MethodDelete:
		for i, client := range f.clients {
			if client.ID == parts[3] {
				f.clients = append(f.clients[:i], f.clients[i+1:]...)
				return jsonStatus(http.StatusOK, client), nil
			}
		}
		return jsonStatus(http.StatusNotFound, nil), nil
	case len(parts) == 5 && parts[2] == "projects" && parts[4] == "team" && r.Method == http.MethodPost:
		var body teamRequest
		decodeBody(r, &body)
		f.teams = append(f.teams, body)
		return jsonStatus(http.StatusOK, body), nil
	case len(parts) == 5 && parts[2] == "projects" && parts[4] == "tasks" && r.Method == http.MethodGet:
		return f.projectTasks(r, parts[3]), nil
	case len(parts) == 5 && parts[2] == "projects" && parts[4] == "tasks" && r.Method == http.MethodPost:
		var body taskRequest
		decodeBody(r, &body)
		f.nextID++
		f.tasks = append(f.tasks, Task{ID: fmt.Sprintf("task-%d", f.nextID), Name: body.Name, ProjectID: parts[3], Estimate: body.Estimate})
		return jsonStatus(http.StatusCreated, f.tasks[len(f.tasks)-1]), nil
	default:
		return jsonStatus(http.StatusNotFound, map[string]string{"message": "unexpected " + r.Method + " " + path}), nil
	}
}

func (f *fakeClockify) list(r *http.Request, kind string) *http.Response {
	if page := r.URL.Query().Get("page"); page != "" && page != "1" {
		return jsonStatus(http.StatusOK, []any{})
	}
	switch kind {
	case "projects":
		return jsonStatus(http.StatusOK, f.projects)
	case "clients":
		return jsonStatus(http.StatusOK, f.clients)
	case "tags":
		return jsonStatus(http.StatusOK, f.tags)
	case "user-groups":
		return jsonStatus(http.StatusOK, f.groups)
	case "users":
		return jsonStatus(http.StatusOK, f.members)
	default:
		return jsonStatus(http.StatusNotFound, nil)
	}
}

func (f *fakeClockify) create(r *http.Request, caller User, kind string) *http.Response {
	raw, _ := io.ReadAll(r.Body)
	f.nextID++
	id := fmt.Sprintf("%s-%d", kind, f.nextID)

	switch kind {
	case "clients":
		var body nameRequest
		_ = json.Unmarshal(raw, &body)
		for _, client := range f.clients {
			if client.Name == body.Name {
				return jsonStatus(http.StatusBadRequest, map[string]string{"message": "exists"})
			}
		}
		f.clients = append(f.clients, Client{ID: id, Name: body.Name})
		return jsonStatus(http.StatusCreated, f.clients[len(f.clients)-1])
	case "tags":
		var body nameRequest
		_ = json.Unmarshal(raw, &body)
		for _, tag := range f.tags {
			if tag.Name == body.Name {
				return jsonStatus(http.StatusBadRequest, map[string]string{"message": "exists"})
			}
		}
		f.tags = append(f.tags, Tag{ID: id, Name: body.Name})
		return jsonStatus(http.StatusCreated, f.tags[len(f.tags)-1])
	case "user-groups":
		var body nameRequest
		_ = json.Unmarshal(raw, &body)
		f.groups = append(f.groups, UserGroup{ID: id, Name: body.Name})
		return jsonStatus(http.StatusCreated, f.groups[len(f.groups)-1])
	case "projects":
		if f.forbidProjects {
			return jsonStatus(http.StatusForbidden, map[string]string{"message": "forbidden"})
		}
		var body projectRequest
		_ = json.Unmarshal(raw, &body)
		clientName := ""
		for _, client := range f.clients {
			if client.ID == body.ClientID {
				clientName = client.Name
			}
		}
		for _, project := range f.projects {
			if project.Name == body.Name && project.ClientName == clientName {
				return jsonStatus(http.StatusBadRequest, map[string]string{"message": "exists"})
			}
		}
		f.projects = append(f.projects, Project{ID: id, Name: body.Name, ClientID: body.ClientID, ClientName: clientName, Color: body.Color})
		return jsonStatus(http.StatusCreated, f.projects[len(f.projects)-1])
	case "time-entries":
		var generic map[string]any
		_ = json.Unmarshal(raw, &generic)
		f.createdBodies = append(f.createdBodies, generic)

		var body EntryRequest
		_ = json.Unmarshal(raw, &body)
		entry := RemoteEntry{
			ID:           id,
			Description:  body.Description,
			ProjectID:    body.ProjectID,
			TaskID:       body.TaskID,
			UserID:       caller.ID,
			Billable:     body.Billable,
			TagIDs:       body.TagIDs,
			TimeInterval: TimeInterval{Start: body.Start, End: body.End},
		}
		f.entries = append(f.entries, entry)
		return jsonStatus(http.StatusCreated, entry)
	default:
		return jsonStatus(http.StatusNotFound, nil)
	}
}

func (f *fakeClockify) userEntries(r *http.Request, userID string) *http.Response {
	query := r.URL.Query()
	out := make([]RemoteEntry, 0)
	for _, entry := range f.entries {
		if entry.UserID != userID {
			continue
		}
		if query.Has("description") && entry.Description != query.Get("description") {
			continue
		}
		if query.Has("start") && entry.TimeInterval.Start < query.Get("start") {
			continue
		}
		if query.Has("project") && entry.ProjectID != query.Get("project") {
			continue
		}
		out = append(out, entry)
	}

	page, size := 1, pageSize
	if n, err := strconv.Atoi(query.Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(query.Get("page-size")); err == nil && n > 0 {
		size = n
	}
	from := min((page-1)*size, len(out))
	to := min(from+size, len(out))
	return jsonStatus(http.StatusOK, out[from:to])
}

func (f *fakeClockify) deleteEntry(id string) *http.Response {
	for i, entry := range f.entries {
		if entry.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return jsonStatus(http.StatusNoContent, nil)
		}
	}
	return jsonStatus(http.StatusNotFound, nil)
}

func (f *fakeClockify) projectTasks(r *http.Request, projectID string) *http.Response {
	if page := r.URL.Query().Get("page"); page != "" && page != "1" {
		return jsonStatus(http.StatusOK, []any{})
	}
	out := make([]Task, 0)
	for _, task := range f.tasks {
		if task.ProjectID == projectID {
			out = append(out, task)
		}
	}
	return jsonStatus(http.StatusOK, out)
}

func (f *fakeClockify) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeClockify) entryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func decodeBody(r *http.Request, out any) {
	_ = json.NewDecoder(r.Body).Decode(out)
}

func jsonStatus(status int, payload any) *http.Response {
	body := []byte{}
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Header:     make(http.Header),
	}
}

func newTestClient(t *testing.T, fake *fakeClockify) *HTTPClient {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	gw, err := gateway.New(gateway.Config{
		Name:              "clockify",
		RequestsPerSecond: 10000,
		MaxRetries:        1,
		Cooldown:          time.Millisecond,
		HTTPClient:        fake,
		Logger:            logger,
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	client, err := NewClient(context.Background(), ClientConfig{
		BaseURL:    "https://api.clockify.test/api/v1",
		APIKeys:    []string{"admin-key", "alice-key"},
		AdminEmail: "admin@example.com",
		PoolSize:   4,
		Gateway:    gw,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func strPtr(value string) *string {
	return &value
}

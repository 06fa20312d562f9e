package toggl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"toggl2clockify/gateway"
	"toggl2clockify/internal/dump"
	"toggl2clockify/internal/lazycache"
)

const (
	DefaultBaseURL    = "https://api.track.toggl.com/api/v8"
	DefaultReportsURL = "https://api.track.toggl.com/reports/api/v2"
	// DefaultRequestsPerSecond is the documented safe rate per token.
	DefaultRequestsPerSecond = 1
	DefaultMaxRetries        = 10
)

var ErrNotFound = errors.New("not found")

// StatusError reports an unexpected HTTP status from Toggl.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

type ClientConfig struct {
	BaseURL    string
	ReportsURL string
	APIToken   string
	Gateway    *gateway.Gateway
	Dump       dump.Writer
	Logger     *slog.Logger
}

// HTTPClient reads workspaces, catalog lists and detailed reports from the
// Toggl API. Lists are cached per workspace.
type HTTPClient struct {
	baseURL    string
	reportsURL string
	token      gateway.BasicToken
	gw         *gateway.Gateway
	dump       dump.Writer
	log        *slog.Logger

	email      string
	workspaces []Workspace

	users    *lazycache.Cache[User]
	clients  *lazycache.Cache[Client]
	projects *lazycache.Cache[Project]
	tags     *lazycache.Cache[Tag]
	groups   *lazycache.Cache[Group]
	tasks    *lazycache.Cache[Task]
}

// NewClient checks the token against /me and keeps the workspaces the
// token administers.
func NewClient(ctx context.Context, cfg ClientConfig) (*HTTPClient, error) {
	baseURL, err := normalizeURL(cfg.BaseURL, DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	reportsURL, err := normalizeURL(cfg.ReportsURL, DefaultReportsURL)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return nil, errors.New("toggl api token is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gw := cfg.Gateway
	if gw == nil {
		gw, err = gateway.New(gateway.Config{
			Name:              "toggl",
			RequestsPerSecond: DefaultRequestsPerSecond,
			MaxRetries:        DefaultMaxRetries,
			Logger:            logger,
		})
		if err != nil {
			return nil, err
		}
	}

	c := &HTTPClient{
		baseURL:    baseURL,
		reportsURL: reportsURL,
		token:      gateway.BasicToken(token),
		gw:         gw,
		dump:       cfg.Dump,
		log:        logger,
	}
	c.users = lazycache.New(func(ctx context.Context, ws string) ([]User, error) {
		return fetchList[User](ctx, c, "users", "/workspaces/"+ws+"/users", nil)
	})
	c.clients = lazycache.New(func(ctx context.Context, ws string) ([]Client, error) {
		return fetchList[Client](ctx, c, "clients", "/workspaces/"+ws+"/clients", nil)
	})
	c.projects = lazycache.New(func(ctx context.Context, ws string) ([]Project, error) {
		return fetchList[Project](ctx, c, "projects", "/workspaces/"+ws+"/projects", url.Values{"active": {"both"}})
	})
	c.tags = lazycache.New(func(ctx context.Context, ws string) ([]Tag, error) {
		return fetchList[Tag](ctx, c, "tags", "/workspaces/"+ws+"/tags", nil)
	})
	c.groups = lazycache.New(func(ctx context.Context, ws string) ([]Group, error) {
		return fetchList[Group](ctx, c, "groups", "/workspaces/"+ws+"/groups", nil)
	})
	c.tasks = lazycache.New(func(ctx context.Context, ws string) ([]Task, error) {
		return fetchList[Task](ctx, c, "tasks", "/workspaces/"+ws+"/tasks", nil)
	})

	var me meResponse
	if err := c.getJSON(ctx, c.baseURL+"/me", nil, &me); err != nil {
		return nil, fmt.Errorf("toggl login failed, check the api token: %w", err)
	}
	c.email = me.Data.Email
	for _, ws := range me.Data.Workspaces {
		if ws.Admin {
			c.workspaces = append(c.workspaces, ws)
		}
	}
	return c, nil
}

func normalizeURL(raw, fallback string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = fallback
	}
	value = strings.TrimRight(value, "/")
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", raw)
	}
	return value, nil
}

func (c *HTTPClient) Email() string {
	return c.email
}

// Workspaces returns the workspaces the token administers.
func (c *HTTPClient) Workspaces() []Workspace {
	return c.workspaces
}

func (c *HTTPClient) WorkspaceID(name string) (int64, error) {
	for _, ws := range c.workspaces {
		if ws.Name == name {
			return ws.ID, nil
		}
	}
	names := make([]string, 0, len(c.workspaces))
	for _, ws := range c.workspaces {
		names = append(names, ws.Name)
	}
	return 0, fmt.Errorf("toggl workspace %q (available: %s): %w", name, strings.Join(names, ", "), ErrNotFound)
}

func (c *HTTPClient) getJSON(ctx context.Context, target string, query url.Values, out any) error {
	resp, err := c.gw.Execute(ctx, gateway.Request{
		Method:      http.MethodGet,
		URL:         target,
		Query:       query,
		Credentials: c.token,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode, Body: resp.Snippet()}
	}
	return resp.Decode(out)
}

func fetchList[T any](ctx context.Context, c *HTTPClient, kind, endpointPath string, query url.Values) ([]T, error) {
	var out []T
	if err := c.getJSON(ctx, c.baseURL+endpointPath, query, &out); err != nil {
		return nil, fmt.Errorf("list toggl %s: %w", kind, err)
	}
	c.log.Debug("toggl list refreshed", slog.String("kind", kind), slog.Int("count", len(out)))
	if err := c.dump.Write("toggl_"+kind, out); err != nil {
		c.log.Warn("dump list failed", slog.String("kind", kind), slog.Any("error", err))
	}
	return out, nil
}

func wsKey(workspaceID int64) string {
	return strconv.FormatInt(workspaceID, 10)
}

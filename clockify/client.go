package clockify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"toggl2clockify/gateway"
	"toggl2clockify/internal/dump"
	"toggl2clockify/internal/lazycache"
)

const (
	DefaultBaseURL           = "https://api.clockify.me/api/v1"
	DefaultRequestsPerSecond = 10
	// DefaultSafetyMargin keeps one request per second in reserve.
	DefaultSafetyMargin = 1
	DefaultMaxRetries   = 5
)

var activeUserStatuses = map[string]bool{
	"ACTIVE":                     true,
	"PENDING_EMAIL_VERIFICATION": true,
}

type ClientConfig struct {
	BaseURL       string
	APIKeys       []string
	AdminEmail    string
	FallbackEmail string
	// PoolSize bounds concurrent entry submissions. Defaults to
	// DefaultRequestsPerSecond.
	PoolSize int
	Gateway  *gateway.Gateway
	Dump     dump.Writer
	Logger   *slog.Logger
}

// HTTPClient talks to the Clockify REST API on behalf of a fixed set of
// api keys. Every request names the identity it runs as.
type HTTPClient struct {
	baseURL       string
	adminEmail    string
	fallbackEmail string
	poolSize      int
	gw            *gateway.Gateway
	dump          dump.Writer
	log           *slog.Logger

	identities []Identity
	workspaces []Workspace

	projects *lazycache.Cache[Project]
	users    *lazycache.Cache[User]
	groups   *lazycache.Cache[UserGroup]
	tags     *lazycache.Cache[Tag]
	clients  *lazycache.Cache[Client]
}

// NewClient validates every api key against GET /user and loads the
// workspaces visible to the admin identity.
func NewClient(ctx context.Context, cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if len(cfg.APIKeys) == 0 {
		return nil, errors.New("at least one clockify api key is required")
	}
	if strings.TrimSpace(cfg.AdminEmail) == "" {
		return nil, errors.New("clockify admin email is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gw := cfg.Gateway
	if gw == nil {
		gw, err = gateway.New(gateway.Config{
			Name:              "clockify",
			RequestsPerSecond: DefaultRequestsPerSecond,
			SafetyMargin:      DefaultSafetyMargin,
			MaxRetries:        DefaultMaxRetries,
			Logger:            logger,
		})
		if err != nil {
			return nil, err
		}
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultRequestsPerSecond
	}

	c := &HTTPClient{
		baseURL:       baseURL,
		adminEmail:    strings.TrimSpace(cfg.AdminEmail),
		fallbackEmail: strings.TrimSpace(cfg.FallbackEmail),
		poolSize:      poolSize,
		gw:            gw,
		dump:          cfg.Dump,
		log:           logger,
	}
	c.projects = lazycache.New(func(ctx context.Context, ws string) ([]Project, error) {
		return fetchList(ctx, c, "projects", fmt.Sprintf("/workspaces/%s/projects", ws), func(p Project) string { return p.ID })
	})
	c.users = lazycache.New(func(ctx context.Context, ws string) ([]User, error) {
		return fetchList(ctx, c, "users", fmt.Sprintf("/workspaces/%s/users", ws), func(u User) string { return u.ID })
	})
	c.groups = lazycache.New(func(ctx context.Context, ws string) ([]UserGroup, error) {
		return fetchList(ctx, c, "usergroups", fmt.Sprintf("/workspaces/%s/user-groups", ws), func(g UserGroup) string { return g.ID })
	})
	c.tags = lazycache.New(func(ctx context.Context, ws string) ([]Tag, error) {
		return fetchList(ctx, c, "tags", fmt.Sprintf("/workspaces/%s/tags", ws), func(t Tag) string { return t.ID })
	})
	c.clients = lazycache.New(func(ctx context.Context, ws string) ([]Client, error) {
		return fetchList(ctx, c, "clients", fmt.Sprintf("/workspaces/%s/clients", ws), func(cl Client) string { return cl.ID })
	})

	if err := c.testKeys(ctx, cfg.APIKeys); err != nil {
		return nil, err
	}
	if err := c.loadWorkspaces(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *HTTPClient) testKeys(ctx context.Context, keys []string) error {
	adminFound := false
	fallbackFound := false
	for i, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("clockify api key #%d is empty", i+1)
		}

		var user User
		if err := c.doJSON(ctx, http.MethodGet, "/user", Identity{APIKey: key}, nil, nil, &user); err != nil {
			return fmt.Errorf("load user for api key #%d: %w", i+1, err)
		}
		if !activeUserStatuses[strings.ToUpper(user.Status)] {
			return fmt.Errorf("user %q is not active in clockify (status %q); activate it before migrating", user.Email, user.Status)
		}

		identity := Identity{APIKey: key, ID: user.ID, Name: user.Name, Email: user.Email}
		if sameEmail(user.Email, c.adminEmail) {
			identity.IsAdmin = true
			adminFound = true
		}
		if c.fallbackEmail != "" && sameEmail(user.Email, c.fallbackEmail) {
			fallbackFound = true
		}
		c.identities = append(c.identities, identity)
		c.log.Info("clockify api key resolved", slog.String("email", user.Email))
	}

	if !adminFound {
		return fmt.Errorf("admin email %s not found among clockify api keys", c.adminEmail)
	}
	if c.fallbackEmail != "" && !fallbackFound {
		return fmt.Errorf("fallback email %s not found among clockify api keys", c.fallbackEmail)
	}
	return nil
}

func (c *HTTPClient) loadWorkspaces(ctx context.Context) error {
	var workspaces []Workspace
	if err := c.doJSON(ctx, http.MethodGet, "/workspaces", c.admin(), nil, nil, &workspaces); err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}
	c.workspaces = workspaces
	if err := c.dump.Write("clockify_workspaces", workspaces); err != nil {
		c.log.Warn("dump workspaces failed", slog.Any("error", err))
	}
	return nil
}

func (c *HTTPClient) Workspaces() []Workspace {
	return c.workspaces
}

func (c *HTTPClient) WorkspaceID(name string) (string, error) {
	for _, ws := range c.workspaces {
		if ws.Name == name {
			return ws.ID, nil
		}
	}
	return "", fmt.Errorf("clockify workspace %q: %w", name, ErrNotFound)
}

func (c *HTTPClient) Identities() []Identity {
	return c.identities
}

func (c *HTTPClient) FallbackEmail() string {
	return c.fallbackEmail
}

// IdentityByEmail returns the identity whose api key acts for email.
func (c *HTTPClient) IdentityByEmail(email string) (Identity, error) {
	for _, identity := range c.identities {
		if sameEmail(identity.Email, email) {
			return identity, nil
		}
	}
	return Identity{}, fmt.Errorf("%s: %w", email, ErrUnknownIdentity)
}

func (c *HTTPClient) admin() Identity {
	for _, identity := range c.identities {
		if identity.IsAdmin {
			return identity
		}
	}
	return Identity{}
}

func (c *HTTPClient) do(ctx context.Context, method, endpointPath string, as Identity, query url.Values, body any) (*gateway.Response, error) {
	return c.gw.Execute(ctx, gateway.Request{
		Method:      method,
		URL:         c.baseURL + endpointPath,
		Query:       query,
		Body:        body,
		Credentials: gateway.APIKey(as.APIKey),
	})
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, as Identity, query url.Values, body any, out any) error {
	resp, err := c.do(ctx, method, endpointPath, as, query, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Method: method, Path: endpointPath, StatusCode: resp.StatusCode, Body: resp.Snippet()}
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w", method, endpointPath, err)
	}
	return nil
}

package clockify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

func (c *HTTPClient) DeleteEntry(ctx context.Context, workspaceID, entryID string) error {
	endpointPath := fmt.Sprintf("/workspaces/%s/time-entries/%s", workspaceID, entryID)
	if err := c.doJSON(ctx, http.MethodDelete, endpointPath, c.admin(), nil, nil, nil); err != nil {
		return fmt.Errorf("delete entry %s: %w", entryID, err)
	}
	return nil
}

// DeleteUserEntries deletes the user's entries page by page until none are
// left. It gives up when not a single entry of a page could be deleted.
func (c *HTTPClient) DeleteUserEntries(ctx context.Context, workspaceID, email string) (int, error) {
	as, err := c.IdentityByEmail(email)
	if err != nil {
		return 0, err
	}
	query := NewUserEntryQuery(as.Email, workspaceID, as.ID)

	deleted := 0
	for {
		entries, err := c.GetTimeEntries(ctx, query)
		if err != nil {
			return deleted, err
		}
		if len(entries) == 0 {
			return deleted, nil
		}
		c.log.Info("deleting entries", slog.String("user", email), slog.Int("count", len(entries)))

		var ok atomic.Int64
		var g errgroup.Group
		g.SetLimit(c.poolSize)
		for _, entry := range entries {
			g.Go(func() error {
				if err := c.DeleteEntry(ctx, workspaceID, entry.ID); err != nil {
					c.log.Warn("delete entry failed", slog.String("id", entry.ID), slog.Any("error", err))
					return nil
				}
				ok.Add(1)
				return nil
			})
		}
		_ = g.Wait()

		deleted += int(ok.Load())
		if ok.Load() == 0 {
			return deleted, fmt.Errorf("none of %d entries of %s could be deleted", len(entries), email)
		}
	}
}

func (c *HTTPClient) DeleteAllProjects(ctx context.Context, workspaceID string) error {
	projects, err := c.Projects(ctx, workspaceID)
	if err != nil {
		return err
	}
	var errs []error
	for i, project := range projects {
		c.log.Info("deleting project",
			slog.String("project", project.Name),
			slog.String("client", project.ClientName),
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, len(projects))),
		)
		if err := c.DeleteProject(ctx, workspaceID, project); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *HTTPClient) DeleteAllClients(ctx context.Context, workspaceID string) error {
	clients, err := c.Clients(ctx, workspaceID)
	if err != nil {
		return err
	}
	var errs []error
	for i, client := range clients {
		c.log.Info("deleting client",
			slog.String("client", client.Name),
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, len(clients))),
		)
		if err := c.DeleteClient(ctx, workspaceID, client.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WipeWorkspace removes the entries of every configured identity, then all
// projects, then all clients. Tags, tasks and groups are left in place.
func (c *HTTPClient) WipeWorkspace(ctx context.Context, workspaceID string) error {
	var errs []error
	for _, identity := range c.identities {
		c.log.Info("deleting all entries of user", slog.String("user", identity.Email))
		if _, err := c.DeleteUserEntries(ctx, workspaceID, identity.Email); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.DeleteAllProjects(ctx, workspaceID); err != nil {
		errs = append(errs, err)
	}
	if err := c.DeleteAllClients(ctx, workspaceID); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

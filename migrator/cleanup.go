package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DeleteEntries removes every Clockify entry of the given users in each
// workspace and returns the number deleted.
func (m *Migrator) DeleteEntries(ctx context.Context, workspaces, emails []string) (int, error) {
	deleted := 0
	var errs []error
	for _, name := range workspaces {
		wsID, err := m.target.WorkspaceID(name)
		if err != nil {
			return deleted, err
		}
		m.log.Info("deleting all entries in workspace", slog.String("workspace", name))
		for _, email := range emails {
			n, err := m.target.DeleteUserEntries(ctx, wsID, email)
			deleted += n
			if err != nil {
				errs = append(errs, fmt.Errorf("workspace %q user %s: %w", name, email, err))
			}
		}
	}
	return deleted, errors.Join(errs...)
}

// Wipe removes entries, projects and clients from each Clockify workspace.
func (m *Migrator) Wipe(ctx context.Context, workspaces []string) error {
	for _, name := range workspaces {
		wsID, err := m.target.WorkspaceID(name)
		if err != nil {
			return err
		}
		m.log.Info("wiping workspace", slog.String("workspace", name))
		if err := m.target.WipeWorkspace(ctx, wsID); err != nil {
			return fmt.Errorf("wipe workspace %q: %w", name, err)
		}
	}
	return nil
}

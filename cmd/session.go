package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"toggl2clockify/clockify"
	"toggl2clockify/config"
	"toggl2clockify/gateway"
	"toggl2clockify/internal/dump"
	"toggl2clockify/journal"
	"toggl2clockify/toggl"
)

func connectToggl(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*toggl.HTTPClient, error) {
	gw, err := gateway.New(gateway.Config{
		Name:              "toggl",
		RequestsPerSecond: cfg.Toggl.RequestsPerSecond,
		MaxRetries:        toggl.DefaultMaxRetries,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("toggl gateway: %w", err)
	}

	client, err := toggl.NewClient(ctx, toggl.ClientConfig{
		BaseURL:    cfg.Toggl.BaseURL,
		ReportsURL: cfg.Toggl.ReportsURL,
		APIToken:   cfg.Toggl.APIToken,
		Gateway:    gw,
		Dump:       dump.Writer{Dir: cfg.Migration.DumpDir},
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to toggl: %w", err)
	}
	return client, nil
}

func connectClockify(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*clockify.HTTPClient, error) {
	gw, err := gateway.New(gateway.Config{
		Name:              "clockify",
		RequestsPerSecond: cfg.Clockify.RequestsPerSecond,
		SafetyMargin:      clockify.DefaultSafetyMargin,
		MaxRetries:        cfg.Clockify.MaxRateLimitRetries,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("clockify gateway: %w", err)
	}

	client, err := clockify.NewClient(ctx, clockify.ClientConfig{
		BaseURL:       cfg.Clockify.BaseURL,
		APIKeys:       cfg.Clockify.APIKeys,
		AdminEmail:    cfg.Clockify.AdminEmail,
		FallbackEmail: cfg.Clockify.FallbackEmail,
		PoolSize:      int(cfg.Clockify.RequestsPerSecond),
		Gateway:       gw,
		Dump:          dump.Writer{Dir: cfg.Migration.DumpDir},
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to clockify: %w", err)
	}
	return client, nil
}

// openJournal returns a nil store when the journal is disabled.
func openJournal(ctx context.Context, cfg config.JournalConfig, logger *slog.Logger) (*journal.Store, error) {
	if cfg.Driver == journal.DriverNone {
		return nil, nil
	}
	return journal.Open(ctx, cfg.Driver, cfg.DSN, logger)
}

// nonBlank trims values and drops blank ones.
func nonBlank(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// resolveWorkspaces returns the configured workspace names, falling back to
// every Toggl workspace the token administers.
func resolveWorkspaces(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	if names := nonBlank(cfg.Migration.Workspaces); len(names) > 0 {
		return names, nil
	}
	source, err := connectToggl(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(source.Workspaces()))
	for _, ws := range source.Workspaces() {
		names = append(names, ws.Name)
	}
	return names, nil
}

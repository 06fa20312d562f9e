package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"toggl2clockify/config"
	"toggl2clockify/journal"
	"toggl2clockify/migrator"
)

var (
	migrateSkipClients      bool
	migrateSkipTags         bool
	migrateSkipGroups       bool
	migrateSkipProjects     bool
	migrateSkipTasks        bool
	migrateSkipEntries      bool
	migrateArchive          bool
	migrateSkipInvalidUsers bool
	migrateYes              bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the configured Toggl workspaces to Clockify",
	Long: `Migrate each configured Toggl workspace into the Clockify workspace of the same name.

Phases per workspace:
1) clients
2) tags
3) user groups
4) projects (with memberships, groups and hourly rates)
5) tasks
6) time entries between migration.start_time and migration.end_time
7) archive projects that are inactive on Toggl (only with --archive)

Entities and entries that already exist on Clockify are skipped, so the command
can be run repeatedly. Time entries of Toggl users without a Clockify account
go to clockify.fallback_email, or are dropped with --skip-invalid-users.`,
	Example: `
  # Full migration without the confirmation prompt
  toggl2clockify migrate --yes

  # Re-run only the time entries phase
  toggl2clockify migrate --skip-clients --skip-tags --skip-groups --skip-projects --skip-tasks

  # Full migration and archive inactive projects afterwards
  toggl2clockify migrate --archive
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		logger := newLogger()
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		since, until, err := cfg.Migration.TimeRange(time.Now(), time.Local)
		if err != nil {
			return err
		}

		source, err := connectToggl(ctx, cfg, logger)
		if err != nil {
			return err
		}
		target, err := connectClockify(ctx, cfg, logger)
		if err != nil {
			return err
		}

		options := migrateOptions(cfg, since, until)
		m := migrator.New(source, target, options, nil, logger)
		workspaces := m.WorkspaceNames(cfg.Migration.Workspaces)
		if len(workspaces) == 0 {
			return fmt.Errorf("no workspaces to migrate: the toggl token administers no workspace")
		}

		question := fmt.Sprintf("Migrate %s from %s until %s?", strings.Join(workspaces, ", "), since.Format(time.RFC3339), until.Format(time.RFC3339))
		if err := confirmOrAbort(migrateYes, "migrate", question); err != nil {
			return err
		}

		store, err := openJournal(ctx, cfg.Journal, logger)
		if err != nil {
			return err
		}
		var run *journal.Run
		if store != nil {
			defer store.Close()
			run, err = store.BeginRun(ctx, "migrate")
			if err != nil {
				return err
			}
			m = migrator.New(source, target, options, run, logger)
		}

		runErr := m.Run(ctx, workspaces)

		if run != nil {
			// record the outcome even after an interrupt
			finishCtx := context.WithoutCancel(ctx)
			if err := run.Finish(finishCtx, runErr); err != nil {
				logger.Error("finishing journal run failed", slog.String("run", run.ID), slog.String("error", err.Error()))
			}
			phases, err := store.ListPhases(finishCtx, run.ID)
			if err != nil {
				logger.Error("reading journal phases failed", slog.String("run", run.ID), slog.String("error", err.Error()))
			} else {
				printPhaseSummary(os.Stdout, run.ID, phases)
			}
		}
		if runErr != nil {
			return runErr
		}

		fmt.Printf("Migration completed. Workspaces: %d\n", len(workspaces))
		return nil
	},
}

func migrateOptions(cfg *config.Config, since, until time.Time) migrator.Options {
	return migrator.Options{
		Since:            since,
		Until:            until,
		SkipInvalidUsers: cfg.Migration.SkipInvalidUsers || migrateSkipInvalidUsers,
		SkipClients:      migrateSkipClients,
		SkipTags:         migrateSkipTags,
		SkipGroups:       migrateSkipGroups,
		SkipProjects:     migrateSkipProjects,
		SkipTasks:        migrateSkipTasks,
		SkipEntries:      migrateSkipEntries,
		Archive:          migrateArchive,
	}
}

func printPhaseSummary(w io.Writer, runID string, phases []journal.PhaseRecord) {
	fmt.Fprintf(w, "Run %s\n", runID)
	for _, p := range phases {
		if p.Skipped {
			fmt.Fprintf(w, "  [%s] phase %d %s: skipped\n", p.Workspace, p.Phase, p.Name)
			continue
		}
		fmt.Fprintf(w, "  [%s] phase %d %s: entries=%d ok=%d skips=%d err=%d\n", p.Workspace, p.Phase, p.Name, p.Entries, p.OK, p.Skips, p.Failed)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateSkipClients, "skip-clients", false, "Skip phase 1 (clients)")
	migrateCmd.Flags().BoolVar(&migrateSkipTags, "skip-tags", false, "Skip phase 2 (tags)")
	migrateCmd.Flags().BoolVar(&migrateSkipGroups, "skip-groups", false, "Skip phase 3 (user groups)")
	migrateCmd.Flags().BoolVar(&migrateSkipProjects, "skip-projects", false, "Skip phase 4 (projects)")
	migrateCmd.Flags().BoolVar(&migrateSkipTasks, "skip-tasks", false, "Skip phase 5 (tasks)")
	migrateCmd.Flags().BoolVar(&migrateSkipEntries, "skip-entries", false, "Skip phase 6 (time entries)")
	migrateCmd.Flags().BoolVar(&migrateArchive, "archive", false, "Run phase 7 and archive projects that are inactive on Toggl")
	migrateCmd.Flags().BoolVar(&migrateSkipInvalidUsers, "skip-invalid-users", false, "Drop entries of Toggl users without a Clockify account instead of using the fallback email")
	migrateCmd.Flags().BoolVarP(&migrateYes, "yes", "y", false, "Do not ask for confirmation")
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"toggl2clockify/config"
	"toggl2clockify/migrator"
)

var (
	deleteEntriesUsers []string
	deleteEntriesYes   bool
)

var deleteEntriesCmd = &cobra.Command{
	Use:   "delete-entries",
	Short: "Delete all Clockify time entries of the given users",
	Long: `Destructive cleanup command.

Deletes every Clockify time entry of each --user in the configured workspaces
(or every workspace the Toggl token administers when none are configured).
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete all entries of two users
  toggl2clockify delete-entries --user alice@example.com --user bob@example.com
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		emails := nonBlank(deleteEntriesUsers)
		if len(emails) == 0 {
			return fmt.Errorf("at least one --user is required")
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		logger := newLogger()
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		workspaces, err := resolveWorkspaces(ctx, cfg, logger)
		if err != nil {
			return err
		}
		question := fmt.Sprintf("Delete all Clockify entries of %s in %s?", strings.Join(emails, ", "), strings.Join(workspaces, ", "))
		if err := confirmOrAbort(deleteEntriesYes, "delete", question); err != nil {
			return err
		}

		target, err := connectClockify(ctx, cfg, logger)
		if err != nil {
			return err
		}
		deleted, err := migrator.New(nil, target, migrator.Options{}, nil, logger).DeleteEntries(ctx, workspaces, emails)
		fmt.Printf("Deleted time entries: %d\n", deleted)
		return err
	},
}

func init() {
	rootCmd.AddCommand(deleteEntriesCmd)

	deleteEntriesCmd.Flags().StringArrayVarP(&deleteEntriesUsers, "user", "u", nil, "Email of the Clockify user whose entries are deleted (repeatable)")
	deleteEntriesCmd.Flags().BoolVarP(&deleteEntriesYes, "yes", "y", false, "Do not ask for confirmation")
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"toggl2clockify/config"
	"toggl2clockify/migrator"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Remove all entries, projects and clients from the Clockify workspaces",
	Long: `Destructive cleanup command.

For each configured workspace, deletes the time entries of every configured
Clockify api key, then archives and deletes all projects, then deletes all
clients. Tags and user groups are kept.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Reset the Clockify side before a fresh migration
  toggl2clockify wipe
`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		question := fmt.Sprintf("Wipe Clockify workspaces %s?", strings.Join(workspaces, ", "))
		if err := confirmOrAbort(wipeYes, "wipe", question); err != nil {
			return err
		}

		target, err := connectClockify(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if err := migrator.New(nil, target, migrator.Options{}, nil, logger).Wipe(ctx, workspaces); err != nil {
			return err
		}
		fmt.Printf("Wiped workspaces: %d\n", len(workspaces))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)

	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "Do not ask for confirmation")
}

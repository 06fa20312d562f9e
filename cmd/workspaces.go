package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"toggl2clockify/config"
	"toggl2clockify/toggl"
)

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List the Toggl workspaces the api token administers",
	Long: `List the Toggl workspaces that would be migrated when migration.workspaces is empty.

Only workspaces where the token owner is admin are listed.`,
	Example: `
  toggl2clockify workspaces
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		logger := newLogger()
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		source, err := connectToggl(ctx, cfg, logger)
		if err != nil {
			return err
		}
		printWorkspaces(os.Stdout, source.Email(), source.Workspaces())
		return nil
	},
}

func printWorkspaces(w io.Writer, owner string, workspaces []toggl.Workspace) {
	fmt.Fprintf(w, "Toggl workspaces administered by %s: %d\n", owner, len(workspaces))
	for _, ws := range workspaces {
		fmt.Fprintf(w, "  %d\t%s\n", ws.ID, ws.Name)
	}
}

func init() {
	rootCmd.AddCommand(workspacesCmd)
}

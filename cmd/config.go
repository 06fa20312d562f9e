package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage toggl2clockify configuration file values.",
	Long: `Create, edit and display the toggl2clockify configuration file.

The configuration holds the api credentials and the migration window:
- toggl.api_token
- clockify.api_keys / admin_email / fallback_email
- migration.workspaces / start_time / end_time
- journal.driver / dsn`,
	Example: `
  # Create default config in $HOME/.toggl2clockify.yaml
  toggl2clockify config create

  # Show active config and source file
  toggl2clockify config show

  # Open active config in editor (creates example if missing)
  toggl2clockify config edit
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

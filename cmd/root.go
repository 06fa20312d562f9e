package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toggl2clockify/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "toggl2clockify",
	Short: "Migrate clients, projects, tasks and time entries from Toggl to Clockify.",
	Long: `
**********************************************
*              TOGGL 2 CLOCKIFY              *
**********************************************

This CLI copies each configured Toggl workspace into the Clockify workspace of
the same name. Clients, tags, user groups, projects, tasks and time entries are
matched by name or email and created through the Clockify API. Entries already
present on Clockify are detected and skipped, so runs can be repeated.

Every run is recorded in a local journal (SQLite by default, MySQL optional)
that can be exported to CSV or Excel.
`,
	Example: `
  # Create configuration file
  toggl2clockify config create

  # List the Toggl workspaces the api token administers
  toggl2clockify workspaces

  # Migrate everything configured
  toggl2clockify migrate --yes

  # Only migrate time entries, dropping entries of unknown users
  toggl2clockify migrate --skip-clients --skip-tags --skip-groups --skip-projects --skip-tasks --skip-invalid-users

  # Export the entry outcomes of the latest run
  toggl2clockify report --output ./entries.xlsx

  # Delete all Clockify entries of one user
  toggl2clockify delete-entries --user alice@example.com
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.toggl2clockify.yaml, then ./.toggl2clockify.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".toggl2clockify")
	}

	// T2C_CLOCKIFY_ADMIN_EMAIL overrides clockify.admin_email
	viper.SetEnvPrefix("T2C")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: toggl2clockify config create")
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

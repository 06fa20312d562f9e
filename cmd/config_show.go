package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toggl2clockify/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Api
credentials are masked.`,
	Example: `
  # Show active configuration
  toggl2clockify config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		}
		fmt.Println("Configuration:")
		printConfig(os.Stdout, cfg)
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "toggl.api_token: %s\n", maskSecret(cfg.Toggl.APIToken))
	fmt.Fprintf(w, "toggl.base_url: %s\n", cfg.Toggl.BaseURL)
	fmt.Fprintf(w, "toggl.reports_url: %s\n", cfg.Toggl.ReportsURL)
	fmt.Fprintf(w, "toggl.requests_per_second: %g\n", cfg.Toggl.RequestsPerSecond)
	fmt.Fprintf(w, "clockify.api_keys: %d\n", len(cfg.Clockify.APIKeys))
	for i, key := range cfg.Clockify.APIKeys {
		fmt.Fprintf(w, "clockify.api_keys[%d]: %s\n", i, maskSecret(key))
	}
	fmt.Fprintf(w, "clockify.admin_email: %s\n", cfg.Clockify.AdminEmail)
	fmt.Fprintf(w, "clockify.fallback_email: %s\n", cfg.Clockify.FallbackEmail)
	fmt.Fprintf(w, "clockify.base_url: %s\n", cfg.Clockify.BaseURL)
	fmt.Fprintf(w, "clockify.requests_per_second: %g\n", cfg.Clockify.RequestsPerSecond)
	fmt.Fprintf(w, "clockify.max_rate_limit_retries: %d\n", cfg.Clockify.MaxRateLimitRetries)
	workspaces := "(all administered toggl workspaces)"
	if len(cfg.Migration.Workspaces) > 0 {
		workspaces = strings.Join(cfg.Migration.Workspaces, ", ")
	}
	fmt.Fprintf(w, "migration.workspaces: %s\n", workspaces)
	fmt.Fprintf(w, "migration.start_time: %s\n", cfg.Migration.StartTime)
	endTime := cfg.Migration.EndTime
	if strings.TrimSpace(endTime) == "" {
		endTime = "(now)"
	}
	fmt.Fprintf(w, "migration.end_time: %s\n", endTime)
	fmt.Fprintf(w, "migration.skip_invalid_users: %t\n", cfg.Migration.SkipInvalidUsers)
	fmt.Fprintf(w, "migration.dump_dir: %s\n", cfg.Migration.DumpDir)
	fmt.Fprintf(w, "journal.driver: %s\n", cfg.Journal.Driver)
	fmt.Fprintf(w, "journal.dsn: %s\n", maskDSN(cfg.Journal.Driver, cfg.Journal.DSN))
}

// maskSecret keeps the last four characters.
func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

// maskDSN hides the password of a mysql DSN (user:password@tcp(...)/db).
func maskDSN(driver, dsn string) string {
	if driver != "mysql" {
		return dsn
	}
	at := strings.LastIndex(dsn, "@")
	colon := strings.Index(dsn, ":")
	if at < 0 || colon < 0 || colon > at {
		return dsn
	}
	return dsn[:colon+1] + "****" + dsn[at:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

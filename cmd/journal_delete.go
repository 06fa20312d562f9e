package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toggl2clockify/config"
	"toggl2clockify/journal"
)

var (
	deleteJournalPath string
	deleteJournalYes  bool
)

var deleteJournalCmd = &cobra.Command{
	Use:   "delete-journal",
	Short: "Delete the complete SQLite journal file",
	Long: `Destructive journal cleanup command.

Deletes the SQLite run journal (journal.dsn unless --db is given). MySQL
journals are not touched.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the configured SQLite journal
  toggl2clockify delete-journal

  # Delete a specific journal file
  toggl2clockify delete-journal --db ./old-run.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := journalFilePath(deleteJournalPath, viper.GetString(config.KeyJournalDriver), viper.GetString(config.KeyJournalDSN))
		if err != nil {
			return err
		}
		if err := confirmOrAbort(deleteJournalYes, "delete", fmt.Sprintf("Delete journal file %q?", path)); err != nil {
			return err
		}

		if err := removeDatabaseFile(path); err != nil {
			return err
		}
		fmt.Printf("Deleted journal file: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteJournalCmd)

	deleteJournalCmd.Flags().StringVar(&deleteJournalPath, "db", "", "Path to the SQLite journal (default: journal.dsn)")
	deleteJournalCmd.Flags().BoolVarP(&deleteJournalYes, "yes", "y", false, "Do not ask for confirmation")
}

func journalFilePath(flagPath, driver, dsn string) (string, error) {
	if strings.TrimSpace(flagPath) != "" {
		return flagPath, nil
	}
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver != "" && driver != journal.DriverSQLite {
		return "", fmt.Errorf("journal driver %q has no local file, pass --db", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return journal.DefaultSQLitePath, nil
	}
	return dsn, nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}

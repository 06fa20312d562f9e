package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"toggl2clockify/config"
	"toggl2clockify/journal"
	"toggl2clockify/output"
)

var (
	reportFormat string
	reportMode   string
	reportOutput string
	reportRunID  string
	reportList   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the run journal to CSV/Excel",
	Long: `Export the outcomes recorded in the run journal.

Modes:
- entries: one row per migrated time entry (outcome, state, Clockify id, error)
- users: per-user totals of created, already existing and failed entries

The latest run is exported unless --run names another one. --list prints the
recorded runs instead of exporting.

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # List recorded runs
  toggl2clockify report --list

  # Export the entries of the latest run to CSV
  toggl2clockify report --output ./entries.csv

  # Export per-user totals of a given run to Excel
  toggl2clockify report --mode users --run 4f1c... --output ./users.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		if cfg.Journal.Driver == journal.DriverNone {
			return fmt.Errorf("the run journal is disabled (journal.driver: none)")
		}
		logger := newLogger()
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		store, err := openJournal(ctx, cfg.Journal, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if reportList {
			runs, err := store.ListRuns(ctx)
			if err != nil {
				return err
			}
			printRuns(os.Stdout, runs)
			return nil
		}
		if strings.TrimSpace(reportOutput) == "" {
			return fmt.Errorf("--output is required")
		}

		runID := strings.TrimSpace(reportRunID)
		if runID == "" {
			runID, err = store.LatestRunID(ctx)
			if errors.Is(err, journal.ErrRunNotFound) {
				return fmt.Errorf("no runs recorded in the journal yet")
			}
			if err != nil {
				return err
			}
		}
		entries, err := store.ListEntries(ctx, runID)
		if err != nil {
			return err
		}

		format := reportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(reportOutput)
		}

		mode := strings.TrimSpace(strings.ToLower(reportMode))
		switch mode {
		case "", "entries":
			writer, writerErr := output.WriterForFormat(format)
			if writerErr != nil {
				return writerErr
			}
			if err := writer.Write(reportOutput, entries); err != nil {
				return err
			}
			fmt.Printf("Report completed. Run: %s, Rows: %d, Mode: entries, Format: %s, File: %s\n", runID, len(entries), format, reportOutput)
		case "users":
			summaries := output.BuildUserSummaries(entries)
			if err := output.WriteUserSummaries(reportOutput, format, summaries); err != nil {
				return err
			}
			fmt.Printf("Report completed. Run: %s, Users: %d, Mode: users, Format: %s, File: %s\n", runID, len(summaries), format, reportOutput)
		default:
			return fmt.Errorf("unsupported report mode: %s (supported: entries, users)", reportMode)
		}
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func printRuns(w io.Writer, runs []journal.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range runs {
		finished := "-"
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Local().Format(time.DateTime)
		}
		line := fmt.Sprintf("%s  %-8s %-9s started %s finished %s", run.ID, run.Command, run.Status, run.StartedAt.Local().Format(time.DateTime), finished)
		if run.Error != "" {
			line += "  error: " + run.Error
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportMode, "mode", "entries", "Report mode: entries|users")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file path")
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "Run id to export (default: latest run)")
	reportCmd.Flags().BoolVar(&reportList, "list", false, "List recorded runs instead of exporting")
}

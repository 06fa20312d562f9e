// Package journal records migration runs, phase results and per-entry
// outcomes in SQLite or MySQL. The journal is write-mostly; nothing in the
// migration reads it back.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	// DriverNone disables the journal.
	DriverNone   = "none"

	DefaultSQLitePath = "toggl2clockify.db"
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var ErrRunNotFound = errors.New("run not found")

type Store struct {
	db     *sql.DB
	driver string
}

type Run struct {
	ID      string
	Command string
	store   *Store
}

type RunSummary struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Error      string
}

type PhaseRecord struct {
	Workspace string
	Phase     int
	Name      string
	Skipped   bool
	Entries   int
	OK        int
	Skips     int
	Failed    int
}

type EntryRecord struct {
	RunID       string
	Workspace   string
	Email       string
	Start       time.Time
	Description string
	Project     string
	Outcome     string
	State       string
	RemoteID    string
	Error       string
	RecordedAt  time.Time
}

// Open connects to the journal database and applies pending migrations.
// For sqlite the dsn is a file path; for mysql it is a go-sql-driver DSN
// that should include multiStatements=true.
func Open(ctx context.Context, driver, dsn string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	driver = strings.ToLower(strings.TrimSpace(driver))
	dsn = strings.TrimSpace(dsn)
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
	case DriverMySQL:
		if dsn == "" {
			return nil, errors.New("mysql journal: DSN is required")
		}
	default:
		return nil, fmt.Errorf("unsupported journal driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", driver, err)
	}
	if driver == DriverMySQL {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s journal: %w", driver, err)
	}

	if err := migrate(ctx, db, driver, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() string {
	return s.driver
}

// BeginRun inserts a new running run with a random id.
func (s *Store) BeginRun(ctx context.Context, command string) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Command: command, store: s}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at, finished_at, status, error) VALUES (?, ?, ?, '', ?, '')`,
		run.ID, command, formatTime(time.Now()), StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

func (r *Run) RecordPhase(ctx context.Context, rec PhaseRecord) error {
	_, err := r.store.db.ExecContext(ctx, `
INSERT INTO phases (run_id, workspace, phase, name, skipped, entries, ok, skips, failed, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, rec.Workspace, rec.Phase, rec.Name, rec.Skipped,
		rec.Entries, rec.OK, rec.Skips, rec.Failed, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record phase %d: %w", rec.Phase, err)
	}
	return nil
}

// RecordEntries stores one page of entry outcomes in a single transaction.
func (r *Run) RecordEntries(ctx context.Context, records []EntryRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO entries (run_id, workspace, email, start_time, description, project, outcome, state, remote_id, error, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID, rec.Workspace, rec.Email, formatTime(rec.Start), rec.Description,
			rec.Project, rec.Outcome, rec.State, rec.RemoteID, rec.Error, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert entry record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Finish marks the run succeeded, or failed with runErr's message.
func (r *Run) Finish(ctx context.Context, runErr error) error {
	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		formatTime(time.Now()), status, message, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run %s: %w", r.ID, ErrRunNotFound)
	}
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, started_at, finished_at, status, error FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunSummary, 0, 16)
	for rows.Next() {
		var (
			run               RunSummary
			started, finished string
		)
		if err := rows.Scan(&run.ID, &run.Command, &started, &finished, &run.Status, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished != "" {
			finishedAt, err := parseTime(finished)
			if err != nil {
				return nil, err
			}
			run.FinishedAt = &finishedAt
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// LatestRunID returns the id of the most recently started run.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC, id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return id, nil
}

func (s *Store) ListPhases(ctx context.Context, runID string) ([]PhaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT workspace, phase, name, skipped, entries, ok, skips, failed
FROM phases WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var out []PhaseRecord
	for rows.Next() {
		var rec PhaseRecord
		if err := rows.Scan(&rec.Workspace, &rec.Phase, &rec.Name, &rec.Skipped, &rec.Entries, &rec.OK, &rec.Skips, &rec.Failed); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEntries returns the entry outcomes of runID in insertion order.
func (s *Store) ListEntries(ctx context.Context, runID string) ([]EntryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, workspace, email, start_time, description, project, outcome, state, remote_id, error, recorded_at
FROM entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := make([]EntryRecord, 0, 256)
	for rows.Next() {
		var (
			rec             EntryRecord
			start, recorded string
		)
		if err := rows.Scan(
			&rec.RunID, &rec.Workspace, &rec.Email, &start, &rec.Description,
			&rec.Project, &rec.Outcome, &rec.State, &rec.RemoteID, &rec.Error, &recorded,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if rec.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if rec.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// storedLayout is fixed width so timestamps sort lexically.
const storedLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(value time.Time) string {
	return value.UTC().Format(storedLayout)
}

func parseTime(value string) (time.Time, error) {
	parsed, err := time.Parse(storedLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return parsed, nil
}

package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed sql/sqlite/*.sql sql/mysql/*.sql
var migrationsFS embed.FS

var migrationsTableDDL = map[string]string{
	DriverSQLite: `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);`,
	DriverMySQL: `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	applied_at VARCHAR(40) NOT NULL
) ENGINE=InnoDB;`,
}

// migrate applies the pending migrations under sql/<driver>. Files are named
// like 0001_description.sql and run in lexicographic order, each as a single
// statement batch.
func migrate(ctx context.Context, db *sql.DB, driver string, log *slog.Logger) error {
	ddl, ok := migrationsTableDDL[driver]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", driver)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "sql/"+driver+"/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	applied, err := loadApplied(ctx, db)
	if err != nil {
		return err
	}

	for _, file := range files {
		base := path.Base(file)
		version, err := parseVersion(base)
		if err != nil {
			return fmt.Errorf("invalid migration filename %q: %w", base, err)
		}
		if applied[version] {
			log.Debug("migration already applied", slog.Int("version", version), slog.String("file", base))
			continue
		}
		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return err
		}
		log.Info("applying migration", slog.String("driver", driver), slog.Int("version", version), slog.String("file", base))
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("applying %s: %w", base, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)",
			version, formatTime(time.Now()),
		); err != nil {
			return fmt.Errorf("record migration %d: %w", version, err)
		}
	}
	return nil
}

func loadApplied(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func parseVersion(name string) (int, error) {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return 0, fmt.Errorf("missing prefix number")
	}
	return strconv.Atoi(name[:i])
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"toggl2clockify/journal"
)

func TestJournalFilePath(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		driver  string
		dsn     string
		want    string
		wantErr bool
	}{
		{name: "flag wins", flag: "./other.db", driver: "mysql", dsn: "user:pw@tcp(db)/j", want: "./other.db"},
		{name: "sqlite dsn", driver: "sqlite", dsn: "./journal.db", want: "./journal.db"},
		{name: "default path", driver: "sqlite", want: journal.DefaultSQLitePath},
		{name: "mysql has no file", driver: "mysql", dsn: "user:pw@tcp(db)/j", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := journalFilePath(tt.flag, tt.driver, tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRemoveDatabaseFile(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toggl2clockify.db")
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write temp db file: %v", err)
		}

		if err := removeDatabaseFile(path); err != nil {
			t.Fatalf("remove db file: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected file to be deleted")
		}
	})

	t.Run("fails for directory path", func(t *testing.T) {
		dir := t.TempDir()
		if err := removeDatabaseFile(dir); err == nil {
			t.Fatalf("expected error for directory path")
		}
	})

	t.Run("fails for missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		if err := removeDatabaseFile(path); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
}

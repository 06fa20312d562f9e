package config

import (
	"strings"
	"testing"
	"time"
)

const validYAML = `toggl:
  api_token: "toggl-token"
clockify:
  api_keys: ["admin-key", "alice-key"]
  admin_email: "admin@example.com"
migration:
  workspaces: ["Acme"]
  start_time: "2020-01-01"
  end_time: "2021-06-30T18:00:00Z"
`

func TestValidateYAMLContent_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(validYAML))
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Clockify.RequestsPerSecond != 10 || cfg.Clockify.MaxRateLimitRetries != 5 {
		t.Fatalf("unexpected clockify defaults %+v", cfg.Clockify)
	}
	if cfg.Toggl.RequestsPerSecond != 1 || cfg.Toggl.BaseURL != "https://api.track.toggl.com/api/v8" {
		t.Fatalf("unexpected toggl defaults %+v", cfg.Toggl)
	}
	if cfg.Journal.Driver != "sqlite" || cfg.Journal.DSN != "./toggl2clockify.db" {
		t.Fatalf("unexpected journal defaults %+v", cfg.Journal)
	}
	if len(cfg.Clockify.APIKeys) != 2 || cfg.Migration.Workspaces[0] != "Acme" {
		t.Fatalf("unexpected values %+v", cfg)
	}
}

func TestValidateYAMLContent_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{name: "missing token", replace: [2]string{`api_token: "toggl-token"`, `api_token: ""`}, want: "APIToken"},
		{name: "no api keys", replace: [2]string{`api_keys: ["admin-key", "alice-key"]`, `api_keys: []`}, want: "APIKeys"},
		{name: "invalid admin email", replace: [2]string{`admin_email: "admin@example.com"`, `admin_email: "admin"`}, want: "AdminEmail"},
		{name: "invalid fallback email", replace: [2]string{`admin_email: "admin@example.com"`, "admin_email: \"admin@example.com\"\n  fallback_email: \"nobody\""}, want: "FallbackEmail"},
		{name: "rate not above margin", replace: [2]string{`admin_email: "admin@example.com"`, "admin_email: \"admin@example.com\"\n  requests_per_second: 1"}, want: "RequestsPerSecond"},
		{name: "bad start", replace: [2]string{`start_time: "2020-01-01"`, `start_time: "yesterday"`}, want: "start_time"},
		{name: "end before start", replace: [2]string{`end_time: "2021-06-30T18:00:00Z"`, `end_time: "2019-01-01"`}, want: "must be before"},
		{name: "unknown journal driver", replace: [2]string{"migration:", "journal:\n  driver: \"postgres\"\nmigration:"}, want: "Driver"},
		{name: "mysql without dsn", replace: [2]string{"migration:", "journal:\n  driver: \"mysql\"\n  dsn: \"\"\nmigration:"}, want: "journal.dsn"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			content := strings.Replace(validYAML, tc.replace[0], tc.replace[1], 1)
			_, err := ValidateYAMLContent([]byte(content))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestExampleYAML_IsValid(t *testing.T) {
	t.Parallel()

	if _, err := ValidateYAMLContent([]byte(ExampleYAML())); err != nil {
		t.Fatalf("example config must validate: %v", err)
	}
}

func TestMigrationConfig_TimeRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	loc := time.FixedZone("CET", 3600)

	since, until, err := MigrationConfig{StartTime: "2024-01-01"}.TimeRange(now, loc)
	if err != nil {
		t.Fatalf("time range: %v", err)
	}
	if !since.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected since %s", since)
	}
	if !until.Equal(now) {
		t.Fatalf("expected empty end to mean now, got %s", until)
	}

	_, until, err = MigrationConfig{StartTime: "2024-01-01", EndTime: "2024-02-01T08:00:00Z"}.TimeRange(now, loc)
	if err != nil {
		t.Fatalf("time range: %v", err)
	}
	if !until.Equal(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected until %s", until)
	}
}

package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"toggl2clockify/internal/timeutil"
)

const (
	KeyTogglAPIToken          = "toggl.api_token"
	KeyTogglBaseURL           = "toggl.base_url"
	KeyTogglReportsURL        = "toggl.reports_url"
	KeyTogglRequestsPerSecond = "toggl.requests_per_second"

	KeyClockifyAPIKeys             = "clockify.api_keys"
	KeyClockifyAdminEmail          = "clockify.admin_email"
	KeyClockifyFallbackEmail       = "clockify.fallback_email"
	KeyClockifyBaseURL             = "clockify.base_url"
	KeyClockifyRequestsPerSecond   = "clockify.requests_per_second"
	KeyClockifyMaxRateLimitRetries = "clockify.max_rate_limit_retries"

	KeyMigrationWorkspaces       = "migration.workspaces"
	KeyMigrationStartTime        = "migration.start_time"
	KeyMigrationEndTime          = "migration.end_time"
	KeyMigrationSkipInvalidUsers = "migration.skip_invalid_users"
	KeyMigrationDumpDir          = "migration.dump_dir"

	KeyJournalDriver = "journal.driver"
	KeyJournalDSN    = "journal.dsn"
)

type Config struct {
	Toggl     TogglConfig     `mapstructure:"toggl" validate:"required"`
	Clockify  ClockifyConfig  `mapstructure:"clockify" validate:"required"`
	Migration MigrationConfig `mapstructure:"migration" validate:"required"`
	Journal   JournalConfig   `mapstructure:"journal"`
}

type TogglConfig struct {
	APIToken          string  `mapstructure:"api_token" validate:"required"`
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	ReportsURL        string  `mapstructure:"reports_url" validate:"required,url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
}

type ClockifyConfig struct {
	APIKeys             []string `mapstructure:"api_keys" validate:"required,min=1,dive,required"`
	AdminEmail          string   `mapstructure:"admin_email" validate:"required,email"`
	FallbackEmail       string   `mapstructure:"fallback_email" validate:"omitempty,email"`
	BaseURL             string   `mapstructure:"base_url" validate:"required,url"`
	RequestsPerSecond   float64  `mapstructure:"requests_per_second" validate:"gt=1"`
	MaxRateLimitRetries int      `mapstructure:"max_rate_limit_retries" validate:"gte=0"`
}

type MigrationConfig struct {
	Workspaces       []string `mapstructure:"workspaces"`
	StartTime        string   `mapstructure:"start_time" validate:"required"`
	EndTime          string   `mapstructure:"end_time"`
	SkipInvalidUsers bool     `mapstructure:"skip_invalid_users"`
	DumpDir          string   `mapstructure:"dump_dir"`
}

type JournalConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite mysql none"`
	DSN    string `mapstructure:"dsn"`
}

// TimeRange parses the migration window. Dates without a time are taken
// as midnight in loc; an empty end means now.
func (m MigrationConfig) TimeRange(now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	since, err := timeutil.ParseBoundary(m.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("migration.start_time: %w", err)
	}
	until := now
	if strings.TrimSpace(m.EndTime) != "" {
		until, err = timeutil.ParseBoundary(m.EndTime, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("migration.end_time: %w", err)
		}
	}
	if !since.Before(until) {
		return time.Time{}, time.Time{}, fmt.Errorf("migration.start_time %s must be before end %s", since.Format(time.RFC3339), until.Format(time.RFC3339))
	}
	return since, until, nil
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# toggl2clockify configuration
toggl:
  api_token: "your-toggl-api-token"
  base_url: "https://api.track.toggl.com/api/v8"
  reports_url: "https://api.track.toggl.com/reports/api/v2"
  requests_per_second: 1

clockify:
  # one api key per Clockify user whose entries are migrated
  api_keys:
    - "admin-api-key"
  admin_email: "admin@example.com"
  fallback_email: ""
  base_url: "https://api.clockify.me/api/v1"
  requests_per_second: 10
  max_rate_limit_retries: 5

migration:
  # empty means every Toggl workspace the token administers
  workspaces: []
  start_time: "2020-01-01"
  end_time: ""
  skip_invalid_users: false
  dump_dir: ""

journal:
  driver: "sqlite"
  dsn: "./toggl2clockify.db"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Journal.Driver = strings.ToLower(strings.TrimSpace(cfg.Journal.Driver))
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, _, err := cfg.Migration.TimeRange(time.Now(), time.Local); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if cfg.Journal.Driver == "mysql" && strings.TrimSpace(cfg.Journal.DSN) == "" {
		return nil, fmt.Errorf("validation failed: journal.dsn is required for the mysql driver")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTogglBaseURL, "https://api.track.toggl.com/api/v8")
	v.SetDefault(KeyTogglReportsURL, "https://api.track.toggl.com/reports/api/v2")
	v.SetDefault(KeyTogglRequestsPerSecond, 1)
	v.SetDefault(KeyClockifyBaseURL, "https://api.clockify.me/api/v1")
	v.SetDefault(KeyClockifyRequestsPerSecond, 10)
	v.SetDefault(KeyClockifyMaxRateLimitRetries, 5)
	v.SetDefault(KeyMigrationWorkspaces, []string{})
	v.SetDefault(KeyMigrationSkipInvalidUsers, false)
	v.SetDefault(KeyJournalDriver, "sqlite")
	v.SetDefault(KeyJournalDSN, "./toggl2clockify.db")
}

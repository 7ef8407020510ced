package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

type Settings struct {
	AWS      AWSSettings      `mapstructure:"aws"`
	Audit    AuditSettings    `mapstructure:"audit"`
	Findings FindingsSettings `mapstructure:"findings"`
	Store    StoreSettings    `mapstructure:"store"`
	Retry    RetrySettings    `mapstructure:"retry"`
	Log      LogSettings      `mapstructure:"log"`
	Server   ServerSettings   `mapstructure:"server"`
	Report   ReportSettings   `mapstructure:"report"`
	Metrics  MetricsSettings  `mapstructure:"metrics"`
	Schedule ScheduleSettings `mapstructure:"schedule"`
}

type AWSSettings struct {
	Profile   string `mapstructure:"profile"`
	Region    string `mapstructure:"region"`
	Partition string `mapstructure:"partition"`
}

type AuditSettings struct {
	// Role assumed in member accounts
	Role             string   `mapstructure:"role"`
	ExcludedAccounts []string `mapstructure:"excluded_accounts"`
	// Regions to audit; "all" enumerates the enabled regions of each account
	Regions        []string `mapstructure:"regions"`
	ApprovedPrefix string   `mapstructure:"approved_prefix"`
	Concurrency    int      `mapstructure:"concurrency"`
}

type FindingsSettings struct {
	Severity    string `mapstructure:"severity"`
	RuleID      string `mapstructure:"rule_id"`
	RuleVersion string `mapstructure:"rule_version"`
	CompanyName string `mapstructure:"company_name"`
	ProductName string `mapstructure:"product_name"`
}

type StoreSettings struct {
	Backend    string `mapstructure:"backend"`
	Table      string `mapstructure:"table"`
	Index      string `mapstructure:"index"`
	SqlitePath string `mapstructure:"sqlite_path"`
}

type RetrySettings struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Interval    time.Duration `mapstructure:"interval"`
}

type LogSettings struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type ReportSettings struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// ScheduleSettings drive recurring audits in the API server. Accounts are
// "id" or "id=name" entries; an empty list disables scheduling.
type ScheduleSettings struct {
	Accounts []string      `mapstructure:"accounts"`
	Interval time.Duration `mapstructure:"interval"`
}

type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

// legacyEnv maps settings keys to the environment names used by earlier
// deployments of the auditor.
var legacyEnv = map[string]string{
	"store.table":             "DYNAMODB_TABLE",
	"store.index":             "DYNAMODB_INDEX",
	"audit.excluded_accounts": "EXCLUDED_ACCOUNTS",
	"audit.role":              "X_ACCOUNT_ROLE",
	"findings.severity":       "SEVERITY",
	"findings.product_name":   "AWS_LAMBDA_FUNCTION_NAME",
	"aws.region":              "AWS_REGION",
	"server.host":             "SERVER_HOST",
	"server.port":             "SERVER_PORT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.partition", "aws")

	v.SetDefault("audit.role", "")
	v.SetDefault("audit.excluded_accounts", []string{})
	v.SetDefault("audit.regions", []string{})
	v.SetDefault("audit.approved_prefix", "s3://emr-boot-strap/")
	v.SetDefault("audit.concurrency", 4)

	v.SetDefault("findings.severity", "MEDIUM")
	v.SetDefault("findings.rule_id", "org-EMR-2")
	v.SetDefault("findings.rule_version", "1.0")
	v.SetDefault("findings.company_name", "org")
	v.SetDefault("findings.product_name", "emr-bootstrap-audit")

	v.SetDefault("store.backend", BackendDynamoDB)
	v.SetDefault("store.table", "")
	v.SetDefault("store.index", "accountId-index")
	v.SetDefault("store.sqlite_path", "compliance-atlas.db")

	v.SetDefault("retry.max_attempts", 20)
	v.SetDefault("retry.interval", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")

	v.SetDefault("report.bucket", "")
	v.SetDefault("report.prefix", "audit-runs/")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("schedule.accounts", []string{})
	v.SetDefault("schedule.interval", time.Hour)
}

// LoadSettings reads the optional YAML file at path and applies environment
// overrides. AUDIT_<SECTION>_<KEY> wins over the legacy names.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("AUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "AUDIT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	s.Audit.ExcludedAccounts = splitList(s.Audit.ExcludedAccounts)
	s.Audit.Regions = splitList(s.Audit.Regions)
	s.Schedule.Accounts = splitList(s.Schedule.Accounts)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	var errs []error

	switch s.Store.Backend {
	case BackendDynamoDB:
		if s.Store.Table == "" {
			errs = append(errs, errors.New("store.table is required for the dynamodb backend"))
		}
	case BackendSQLite:
		if s.Store.SqlitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", s.Store.Backend))
	}

	switch strings.ToUpper(s.Findings.Severity) {
	case "LOW", "MEDIUM", "HIGH", "CRITICAL", "INFORMATIONAL":
		s.Findings.Severity = strings.ToUpper(s.Findings.Severity)
	default:
		errs = append(errs, fmt.Errorf("unknown severity %q", s.Findings.Severity))
	}

	if s.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry.max_attempts must not be negative"))
	}
	if len(s.Schedule.Accounts) > 0 && s.Schedule.Interval <= 0 {
		errs = append(errs, errors.New("schedule.interval must be positive"))
	}
	if s.Audit.Concurrency <= 0 {
		errs = append(errs, errors.New("audit.concurrency must be positive"))
	}

	return errors.Join(errs...)
}

// splitList flattens comma separated entries and drops blanks, so both YAML
// lists and "a, b" style environment values work.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

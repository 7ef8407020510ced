package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings_ValidYAML_PopulatesAllFields(t *testing.T) {
	// Given
	// No indentation of top-level keys to keep the YAML valid
	path := writeFile(t, "audit.yaml", `aws:
  profile: audit
  region: eu-west-1
audit:
  role: AuditRole
  excluded_accounts: ["111122223333", "444455556666"]
  regions: [all]
  concurrency: 8
findings:
  severity: high
store:
  backend: dynamodb
  table: emr-compliance
retry:
  max_attempts: 5
  interval: 2s
`)

	// When
	s, err := LoadSettings(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "audit", s.AWS.Profile)
	assert.Equal(t, "eu-west-1", s.AWS.Region)
	assert.Equal(t, "aws", s.AWS.Partition)
	assert.Equal(t, "AuditRole", s.Audit.Role)
	assert.Equal(t, []string{"111122223333", "444455556666"}, s.Audit.ExcludedAccounts)
	assert.Equal(t, []string{"all"}, s.Audit.Regions)
	assert.Equal(t, 8, s.Audit.Concurrency)
	assert.Equal(t, "s3://emr-boot-strap/", s.Audit.ApprovedPrefix)
	assert.Equal(t, "HIGH", s.Findings.Severity)
	assert.Equal(t, "emr-compliance", s.Store.Table)
	assert.Equal(t, "accountId-index", s.Store.Index)
	assert.Equal(t, 5, s.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, s.Retry.Interval)
}

func TestLoadSettings_LegacyEnvironment(t *testing.T) {
	// Given
	t.Setenv("DYNAMODB_TABLE", "legacy-table")
	t.Setenv("DYNAMODB_INDEX", "acct-gsi")
	t.Setenv("EXCLUDED_ACCOUNTS", "111122223333, 444455556666")
	t.Setenv("X_ACCOUNT_ROLE", "LegacyRole")
	t.Setenv("SEVERITY", "LOW")

	// When
	s, err := LoadSettings("")

	// Then
	require.NoError(t, err)
	assert.Equal(t, "legacy-table", s.Store.Table)
	assert.Equal(t, "acct-gsi", s.Store.Index)
	assert.Equal(t, []string{"111122223333", "444455556666"}, s.Audit.ExcludedAccounts)
	assert.Equal(t, "LegacyRole", s.Audit.Role)
	assert.Equal(t, "LOW", s.Findings.Severity)
	assert.Equal(t, 20, s.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Second, s.Retry.Interval)
}

func TestLoadSettings_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE", "legacy-table")
	t.Setenv("AUDIT_STORE_TABLE", "new-table")

	s, err := LoadSettings("")

	require.NoError(t, err)
	assert.Equal(t, "new-table", s.Store.Table)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("dynamodb without table", func(t *testing.T) {
		t.Setenv("DYNAMODB_TABLE", "")
		_, err := LoadSettings("")
		assert.ErrorContains(t, err, "store.table")
	})

	t.Run("unknown severity", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "store:\n  backend: sqlite\nfindings:\n  severity: urgent\n")
		_, err := LoadSettings(path)
		assert.ErrorContains(t, err, "unknown severity")
	})

	t.Run("unknown backend", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "store:\n  backend: postgres\n")
		_, err := LoadSettings(path)
		assert.ErrorContains(t, err, "unknown store backend")
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", " ", "c,"}))
	assert.Equal(t, []string{}, splitList(nil))
}

func TestLoadSettings_Schedule(t *testing.T) {
	// Given
	t.Setenv("DYNAMODB_TABLE", "emr-compliance")
	path := writeFile(t, "audit.yaml", `schedule:
  accounts: ["111122223333=org-sbx", "444455556666"]
  interval: 30m
`)

	// When
	s, err := LoadSettings(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"111122223333=org-sbx", "444455556666"}, s.Schedule.Accounts)
	assert.Equal(t, 30*time.Minute, s.Schedule.Interval)
}

func TestValidate_ScheduleNeedsInterval(t *testing.T) {
	s := Settings{
		Store:    StoreSettings{Backend: BackendSQLite, SqlitePath: "x.db"},
		Findings: FindingsSettings{Severity: "medium"},
		Audit:    AuditSettings{Concurrency: 1},
		Schedule: ScheduleSettings{Accounts: []string{"111122223333"}},
	}

	err := s.Validate()

	assert.ErrorContains(t, err, "schedule.interval")
}

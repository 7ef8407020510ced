package terminal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/store"
	"github.com/de-tools/compliance-atlas/pkg/services/config"
	"github.com/de-tools/compliance-atlas/pkg/store/records"
)

type staticStore struct {
	items []store.ComplianceRecord
}

func (s *staticStore) ListByAccount(_ context.Context, accountID string) ([]store.ComplianceRecord, error) {
	var out []store.ComplianceRecord
	for _, it := range s.items {
		if it.AccountID == accountID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *staticStore) Put(context.Context, store.ComplianceRecord) (records.WriteResult, error) {
	return records.WriteResult{}, nil
}

func writeSettings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: sqlite\n  sqlite_path: state.db\n"), 0o644))
	return path
}

func TestCLI_Records(t *testing.T) {
	var out, logs bytes.Buffer
	st := &staticStore{items: []store.ComplianceRecord{
		{ResourceID: "j-1", ResourceArn: "arn:j-1", AccountID: "111122223333", ComplianceStatus: "PASSED", FindingID: "F2", Expiry: 1717027200},
		{ResourceID: "j-9", AccountID: "111122223333", ComplianceStatus: "COMPLIANT", FindingID: "X"},
		{ResourceID: "j-2", AccountID: "444455556666", ComplianceStatus: "FAILED", FindingID: "F3"},
	}}
	released := false

	cli := NewCLI(Options{
		Output:    &out,
		LogOutput: &logs,
		OpenStore: func(context.Context, *config.Settings) (records.Store, func() error, error) {
			return st, func() error { released = true; return nil }, nil
		},
	})
	cli.SetArgs([]string{"records", "--config", writeSettings(t), "--account", "111122223333"})

	require.NoError(t, cli.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Compliance records for 111122223333 (1)")
	assert.Contains(t, out.String(), "- j-1: PASSED")
	assert.NotContains(t, out.String(), "j-2")
	assert.Contains(t, logs.String(), "skipping unreadable record")
	assert.True(t, released)
}

func TestCLI_Profiles(t *testing.T) {
	var out bytes.Buffer
	awsConfig := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(awsConfig, []byte("[default]\nregion = us-east-1\n\n[profile audit]\nregion = eu-west-1\n"), 0o644))

	cli := NewCLI(Options{Output: &out, LogOutput: &bytes.Buffer{}})
	cli.SetArgs([]string{"profiles", "--config", writeSettings(t), "--file", awsConfig})

	require.NoError(t, cli.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Name: `default`, Type: `default`, Region: `us-east-1`")
	assert.Contains(t, out.String(), "Name: `audit`, Type: `profile`, Region: `eu-west-1`")
}

func TestCLI_AuditRequiresAccount(t *testing.T) {
	cli := NewCLI(Options{Output: &bytes.Buffer{}, LogOutput: &bytes.Buffer{}})
	cli.rootCmd.SetErr(&bytes.Buffer{})
	cli.SetArgs([]string{"audit", "--config", writeSettings(t)})

	assert.Error(t, cli.ExecuteContext(context.Background()))
}

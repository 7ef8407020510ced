package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

const sharedConfig = `[default]
region = us-east-1

[profile audit]
region = eu-west-1
role_arn = arn:aws:iam::111122223333:role/AuditRole
source_profile = default

[profile sso-dev]
sso_session = corp
sso_account_id = 444455556666

[sso-session corp]
sso_start_url = https://example.awsapps.com/start
sso_region = us-east-1
`

func TestRegistry_GetProfiles(t *testing.T) {
	path := writeFile(t, "config", sharedConfig)
	reg, err := NewRegistry(path)
	require.NoError(t, err)

	profiles, err := reg.GetProfiles(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.ConfigProfile{
		{Name: "default", Type: domain.ProfileTypeDefault, Region: "us-east-1"},
		{Name: "audit", Type: domain.ProfileTypeNamed, Region: "eu-west-1"},
		{Name: "sso-dev", Type: domain.ProfileTypeSSO},
	}, profiles)
}

func TestRegistry_GetProfile(t *testing.T) {
	path := writeFile(t, "config", sharedConfig)
	reg, err := NewRegistry(path)
	require.NoError(t, err)

	p, err := reg.GetProfile(context.Background(), "audit")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", p.Region)

	_, err = reg.GetProfile(context.Background(), "corp")
	assert.Error(t, err)
}

func TestNewRegistry_MissingFile(t *testing.T) {
	_, err := NewRegistry("/nonexistent/config")
	assert.Error(t, err)
}

func TestDefaultAWSConfigPath(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/tmp/custom-config")
	assert.Equal(t, "/tmp/custom-config", DefaultAWSConfigPath())
}

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/audit"
)

func TestParsePayloads(t *testing.T) {
	payloads, err := ParsePayloads(
		[]string{"111122223333=org-sbx", "444455556666"},
		[]string{`{"accountId":"777788889999","accountName":"org-prod"}`},
	)

	require.NoError(t, err)
	assert.Equal(t, []domain.InvocationPayload{
		{AccountID: "111122223333", AccountName: "org-sbx"},
		{AccountID: "444455556666"},
		{AccountID: "777788889999", AccountName: "org-prod"},
	}, payloads)
}

func TestParsePayloads_Errors(t *testing.T) {
	_, err := ParsePayloads(nil, nil)
	assert.Error(t, err)

	_, err = ParsePayloads(nil, []string{`{"accountName":"org-sbx"}`})
	assert.ErrorIs(t, err, audit.ErrOrchestrationInvocation)

	_, err = ParsePayloads(nil, []string{`not json`})
	assert.Error(t, err)
}
